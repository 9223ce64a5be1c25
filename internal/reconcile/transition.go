package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency-portal/internal/domain/access"
	"agency-portal/internal/domain/activity"
	"agency-portal/internal/domain/projects"

	"github.com/google/uuid"
)

var (
	ErrUnknownProject = errors.New("project has no site control")
	// ErrControllerFailed is returned by SetManual when the deploy platform
	// refused the change. Nothing was written locally.
	ErrControllerFailed = errors.New("deploy platform call failed")
	// ErrConcurrentUpdate means the site control row changed between read and write.
	ErrConcurrentUpdate = errors.New("site control changed concurrently")
	// ErrSiteBusy means another worker held the project's site lock for the
	// whole wait.
	ErrSiteBusy = errors.New("site transition already in progress")
)

const (
	siteLockAttempts   = 20
	defaultLockBackoff = 100 * time.Millisecond
)

// lockSite takes the project's site lock, waiting briefly for another holder.
// The returned func releases it.
func (e *Engine) lockSite(ctx context.Context, projectID uuid.UUID) (func(), error) {
	key := projectID.String()
	for attempt := 1; ; attempt++ {
		ok, err := e.siteLock.Acquire(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				if err := e.siteLock.Release(context.WithoutCancel(ctx), key); err != nil {
					e.log.Warn().Err(err).Str("project_id", key).Msg("site lock release failed")
				}
			}, nil
		}
		if attempt >= siteLockAttempts {
			return nil, ErrSiteBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.lockBackoff):
		}
	}
}

// applyAutoTransition runs the engine's side of the state machine:
// read the row, guard the trigger, call the controller if liveness changes,
// then compare-and-swap the row. A controller failure raises an alert and the
// row is still written, so the admin sees the intended state and the alert.
func (e *Engine) applyAutoTransition(ctx context.Context, out *Outcome, projectID uuid.UUID, trigger access.Trigger) error {
	res := &TransitionResult{ProjectID: projectID, Trigger: trigger}
	out.Transition = res

	logger := e.log.With().
		Str("event_id", out.EventID).
		Str("project_id", projectID.String()).
		Str("trigger", string(trigger)).
		Logger()

	unlock, err := e.lockSite(ctx, projectID)
	if err != nil {
		return fmt.Errorf("lock site %s: %w", projectID, err)
	}
	defer unlock()

	sc, err := e.siteControls.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if sc == nil {
		res.Rejected = ErrUnknownProject
		logger.Warn().Msg("no site control row; transition skipped")
		return nil
	}

	t, err := access.Next(*sc, trigger)
	res.From, res.To = t.From, t.To
	if err != nil {
		res.Rejected = err
		logger.Debug().Err(err).Msg("transition not applicable")
		return nil
	}

	project, err := e.directory.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}

	if t.ChangesLiveness() && project != nil && project.HasDeployment() {
		res.ControllerCalled = true
		res.ControllerErr = e.callController(ctx, project, t.To.IsLive())
		if res.ControllerErr != nil {
			logger.Error().Err(res.ControllerErr).Msg("deploy platform call failed; committing local state")
			if err := e.raiseAlert(ctx, out, controllerAlertType(t.To.IsLive()),
				controllerAlertMessage(project, t.To.IsLive(), res.ControllerErr), &project.ClientID, &project.ID); err != nil {
				return err
			}
		}
	}

	ok, err := e.siteControls.CompareAndSwap(ctx, projectID, t)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn().Msg("site control changed concurrently; transition not committed")
		return nil
	}
	res.Committed = true

	action, description := activity.SiteAutoPaused, "Site paused automatically: invoice overdue"
	if t.To.IsLive() {
		action, description = activity.SiteAutoUnpaused, "Site resumed automatically: invoice paid"
	}
	var clientID *uuid.UUID
	if project != nil {
		clientID = &project.ClientID
	}
	meta := map[string]any{"from": t.From, "to": t.To}
	if res.ControllerErr != nil {
		meta["controller_error"] = res.ControllerErr.Error()
	}
	return e.appendActivity(ctx, out, action, description, clientID, &projectID, meta)
}

// SetManual applies an admin pause or resume. The deploy platform is called
// first; if it fails an alert is raised and the row is left unchanged.
func (e *Engine) SetManual(ctx context.Context, projectID uuid.UUID, live bool) (*TransitionResult, error) {
	trigger := access.ManualPause
	if live {
		trigger = access.ManualResume
	}
	res := &TransitionResult{ProjectID: projectID, Trigger: trigger}

	unlock, err := e.lockSite(ctx, projectID)
	if err != nil {
		return res, err
	}
	defer unlock()

	sc, err := e.siteControls.Get(ctx, projectID)
	if err != nil {
		return res, err
	}
	if sc == nil {
		return res, ErrUnknownProject
	}
	t, err := access.Next(*sc, trigger)
	res.From, res.To = t.From, t.To
	if err != nil {
		res.Rejected = err
		return res, err
	}
	if t.IsNoop() {
		return res, nil
	}

	project, err := e.directory.GetProject(ctx, projectID)
	if err != nil {
		return res, fmt.Errorf("load project %s: %w", projectID, err)
	}
	if project == nil {
		return res, ErrUnknownProject
	}

	if t.ChangesLiveness() && project.HasDeployment() {
		res.ControllerCalled = true
		if err := e.callController(ctx, project, live); err != nil {
			res.ControllerErr = err
			e.log.Error().Err(err).Str("project_id", projectID.String()).Msg("manual site toggle failed at deploy platform")
			if alertErr := e.raiseAlert(ctx, nil, controllerAlertType(live),
				controllerAlertMessage(project, live, err), &project.ClientID, &project.ID); alertErr != nil {
				return res, alertErr
			}
			return res, fmt.Errorf("%w: %v", ErrControllerFailed, err)
		}
	}

	ok, err := e.siteControls.CompareAndSwap(ctx, projectID, t)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, ErrConcurrentUpdate
	}
	res.Committed = true

	action, description := activity.SitePaused, "Site paused by admin"
	if live {
		action, description = activity.SiteResumed, "Site resumed by admin"
	}
	entry := &activity.Entry{
		ClientID:    &project.ClientID,
		ProjectID:   &project.ID,
		Action:      action,
		Description: description,
	}
	if err := e.journal.AppendActivity(ctx, entry); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) callController(ctx context.Context, project *projects.Project, live bool) error {
	if live {
		return e.controller.Unpause(ctx, *project.VercelProjectID)
	}
	return e.controller.Pause(ctx, *project.VercelProjectID)
}

func controllerAlertType(live bool) string {
	if live {
		return activity.AlertVercelUnpauseFailed
	}
	return activity.AlertVercelPauseFailed
}

func controllerAlertMessage(project *projects.Project, live bool, err error) string {
	verb := "pause"
	if live {
		verb = "unpause"
	}
	return fmt.Sprintf("Failed to %s Vercel project for %s: %v", verb, project.Name, err)
}
