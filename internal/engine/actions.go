package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/formpilot/formpilot/internal/models"
)

// defaultWaitMs is applied when a wait action carries no delay.
const defaultWaitMs = 500

// runChain executes an ordered action chain. The first failing action stops
// the chain; prior successes stand. A non-empty return names the failed
// action, its position and the chain owner.
func (e *Executor) runChain(ctx context.Context, actions []models.PostAction, owner string) string {
	for i, action := range actions {
		if err := e.runAction(ctx, action); err != nil {
			return fmt.Sprintf("%s: action %d (%s) failed: %v", owner, i+1, action.Kind, err)
		}
	}
	return ""
}

func (e *Executor) runAction(ctx context.Context, action models.PostAction) error {
	switch action.Kind {
	case models.ActionClick:
		el := e.doc.Find(models.MatchQuery, action.Selector)
		if el == nil {
			return fmt.Errorf("element not found (selector %q)", action.Selector)
		}
		return el.Click()

	case models.ActionFocus:
		el := e.doc.Find(models.MatchQuery, action.Selector)
		if el == nil {
			return fmt.Errorf("element not found (selector %q)", action.Selector)
		}
		return el.Focus()

	case models.ActionPressKey:
		// Key events go to the focus holder, falling back to the document
		// itself. Dispatch always counts as success.
		target := e.doc.Active()
		if target == nil {
			target = e.doc.Root()
		}
		_ = target.FireKey(EventKeyDown, action.Key)
		_ = target.FireKey(EventKeyUp, action.Key)
		return nil

	case models.ActionWait:
		delay := action.DelayMs
		if delay <= 0 {
			delay = defaultWaitMs
		}
		timer := time.NewTimer(time.Duration(delay) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}
