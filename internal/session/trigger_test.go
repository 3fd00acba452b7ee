package session

import (
	"sync"
	"testing"
	"time"

	"github.com/nqu-vtuber/backend/internal/config"
)

func TestTriggerFiresForConfiguredEmotion(t *testing.T) {
	trigger := NewTrigger(config.TriggerConfig{Cooldown: 30 * time.Second, Emotions: []string{"sad", "angry"}})

	if !trigger.ShouldTrigger("sad") {
		t.Fatal("expected first sad update to fire")
	}
	if trigger.ShouldTrigger("sad") {
		t.Fatal("expected second sad update suppressed by cooldown")
	}
	// A different configured kind has an independent cooldown record.
	if !trigger.ShouldTrigger("angry") {
		t.Fatal("expected angry to fire independently of sad")
	}
}

func TestTriggerIgnoresUnconfiguredEmotion(t *testing.T) {
	trigger := NewTrigger(config.TriggerConfig{Cooldown: 30 * time.Second, Emotions: []string{"sad"}})

	if trigger.ShouldTrigger("happy") {
		t.Fatal("unconfigured emotion must not fire")
	}
}

func TestTriggerFiresAgainAfterCooldown(t *testing.T) {
	trigger := NewTrigger(config.TriggerConfig{Cooldown: 30 * time.Second, Emotions: []string{"sad"}})

	current := time.Now()
	trigger.now = func() time.Time { return current }

	if !trigger.ShouldTrigger("sad") {
		t.Fatal("expected first update to fire")
	}

	current = current.Add(29 * time.Second)
	if trigger.ShouldTrigger("sad") {
		t.Fatal("expected update inside cooldown suppressed")
	}

	current = current.Add(2 * time.Second)
	if !trigger.ShouldTrigger("sad") {
		t.Fatal("expected update after cooldown to fire")
	}
}

func TestTriggerReleaseReopensWindow(t *testing.T) {
	trigger := NewTrigger(config.TriggerConfig{Cooldown: 30 * time.Second, Emotions: []string{"sad"}})

	if !trigger.ShouldTrigger("sad") {
		t.Fatal("expected first update to fire")
	}

	trigger.Release("sad")
	if !trigger.ShouldTrigger("sad") {
		t.Fatal("expected update after release to fire without waiting out the cooldown")
	}
	if trigger.ShouldTrigger("sad") {
		t.Fatal("expected the re-claimed cooldown to suppress the next update")
	}
}

func TestTriggerCheckAndSetIsAtomic(t *testing.T) {
	trigger := NewTrigger(config.TriggerConfig{Cooldown: time.Minute, Emotions: []string{"sad"}})

	const updates = 50
	results := make([]bool, updates)
	var wg sync.WaitGroup
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = trigger.ShouldTrigger("sad")
		}(i)
	}
	wg.Wait()

	fired := 0
	for _, r := range results {
		if r {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("expected exactly one trigger under concurrency, got %d", fired)
	}
}
