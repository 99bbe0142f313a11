package events_test

import (
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out node events.")
	{
		evts := events.New()

		ch1 := evts.Acquire("a")
		ch2 := evts.Acquire("b")

		if evts.Acquire("a") != ch1 {
			t.Fatalf("\t%s\tShould get back the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould get back the same channel for the same id.", success)

		evts.Send("state: MineNewBlock: MINING: appended block[0]")

		for _, ch := range []chan string{ch1, ch2} {
			if msg := <-ch; msg != "state: MineNewBlock: MINING: appended block[0]" {
				t.Fatalf("\t%s\tShould deliver the event to every subscriber, got %q.", failed, msg)
			}
		}
		t.Logf("\t%s\tShould deliver the event to every subscriber.", success)

		if err := evts.Release("a"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a subscriber: %v", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		t.Logf("\t%s\tShould close a released channel.", success)

		if err := evts.Release("a"); err == nil {
			t.Fatalf("\t%s\tShould report an unknown subscriber.", failed)
		}
		t.Logf("\t%s\tShould report an unknown subscriber.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full subscriber.", success)

		evts.Shutdown()
		for range ch2 {
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}
