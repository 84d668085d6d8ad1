package hub

import (
	"context"
	"testing"
	"time"
)

func TestHub(t *testing.T) {
	h := New(5)
	ctx := context.Background()

	done := make(map[string]time.Time)

	go func() {
		hr := <-h.WorkerCh()
		time.Sleep(100 * time.Millisecond)
		done["worker"] = time.Now()
		hr.Done()
	}()
	go func() {
		hr := <-h.DrawCh()
		if hr.Data() == nil {
			t.Errorf("expected draw options to be non-nil")
		}
		time.Sleep(100 * time.Millisecond)
		done["draw"] = time.Now()
		hr.Done()
	}()
	go func() {
		hr := <-h.StatusMsgCh()
		r := hr.Data().(*statusMsgReq)
		if r.Message() != "Hello, World!" {
			t.Errorf("Expected data to be 'Hello, World!', got '%s'", r.Message())
		}
		time.Sleep(100 * time.Millisecond)
		done["status"] = time.Now()
		hr.Done()
	}()
	go func() {
		hr := <-h.CancelCh()
		time.Sleep(100 * time.Millisecond)
		done["cancel"] = time.Now()
		hr.Done()
	}()

	h.Batch(ctx, func(bctx context.Context) {
		h.SendWorkerEvent(bctx, WorkerEvent{JobID: "job-1", Kind: WorkerDone})
		h.SendDraw(bctx, &DrawOptions{ForceSync: true})
		h.SendStatusMsg(bctx, "Hello, World!", 0)
		h.SendCancel(bctx, CancelRequest{JobID: "job-1"})
	})

	phases := []string{
		"worker",
		"draw",
		"status",
		"cancel",
	}

	max := len(phases) - 1
	for i := range phases {
		if max == i {
			break
		}

		cur := phases[i]
		next := phases[i+1]

		t.Logf("Checkin if %s was fired before %s", cur, next)
		if done[next].Before(done[cur]) {
			t.Errorf("%s executed before %s?!", next, cur)
		}
	}
}
