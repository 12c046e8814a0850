package agent

import (
	"context"
	"fmt"
	"log"
	"time"
)

type Messenger interface {
	Send(chatID string, text string) error
}

// Scheduler re-runs one goal on a fixed interval and pushes each report to a
// chat. Runs are independent; a failed run simply waits for the next tick.
type Scheduler struct {
	Brain    Brain
	Gateway  Messenger
	Goal     string
	ChatID   string
	Interval time.Duration
}

func NewScheduler(brain Brain, gateway Messenger, goal, chatID string, interval time.Duration) *Scheduler {
	return &Scheduler{
		Brain:    brain,
		Gateway:  gateway,
		Goal:     goal,
		ChatID:   chatID,
		Interval: interval,
	}
}

// Start runs the goal once immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Watch scheduler started (every %s)...", interval)

	if err := s.RunOnce(ctx); err != nil {
		log.Printf("Error running watched goal: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Printf("Error running watched goal: %v", err)
			}
		}
	}
}

// RunOnce executes the goal and delivers the report.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log.Printf("Executing watched goal for chat %s: %s", s.ChatID, s.Goal)

	response, err := s.Brain.Think(ctx, s.ChatID, s.Goal)
	if err != nil {
		return err
	}

	if s.Gateway == nil {
		return nil
	}
	if err := s.Gateway.Send(s.ChatID, "Scheduled launch report\n\n"+response); err != nil {
		return fmt.Errorf("deliver report to %s: %w", s.ChatID, err)
	}
	return nil
}
