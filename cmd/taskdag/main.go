package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/taskdag/events"
	"github.com/aristath/taskdag/executor"
	"github.com/aristath/taskdag/internal/config"
	"github.com/aristath/taskdag/internal/tui"
	"github.com/aristath/taskdag/pool"
	"github.com/aristath/taskdag/task"
)

type demoFunc func(*task.Scheduler, *events.EventBus) (any, error)

var demos = map[string]demoFunc{
	"fanin":      demoFanIn,
	"chain":      demoChain,
	"respawn":    demoRespawn,
	"teamreduce": demoTeamReduce,
}

var demoOrder = []string{"fanin", "chain", "respawn", "teamreduce"}

func main() {
	demoFlag := flag.String("demo", "all", "demo to run: fanin, chain, respawn, teamreduce, all")
	workers := flag.Int("workers", 0, "worker count (0 = config / GOMAXPROCS)")
	teamSize := flag.Int("team", 0, "team size (0 = config)")
	serial := flag.Bool("serial", false, "run everything on the calling goroutine")
	monitor := flag.Bool("tui", false, "show the live monitor")
	flag.Parse()

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *workers != 0 {
		cfg.Runtime.Workers = *workers
	}
	if *teamSize != 0 {
		cfg.Runtime.TeamSize = *teamSize
	}
	if *serial {
		cfg.Runtime.Serial = true
	}
	if *monitor {
		cfg.Monitor.Enabled = true
	}

	var names []string
	if *demoFlag == "all" {
		names = demoOrder
	} else if _, ok := demos[*demoFlag]; ok {
		names = []string{*demoFlag}
	} else {
		fmt.Fprintf(os.Stderr, "Unknown demo %q\n", *demoFlag)
		os.Exit(1)
	}

	if cfg.Monitor.Enabled {
		runWithMonitor(cfg, names)
		return
	}

	for _, name := range names {
		v, err := runDemo(cfg, name, nil)
		if err != nil {
			log.Printf("ERROR: demo %s: %v", name, err)
			continue
		}
		fmt.Printf("%-12s = %v\n", name, v)
	}
}

// newScheduler builds a scheduler from the configuration. Every demo
// gets a fresh one so the counters start from zero.
func newScheduler(cfg *config.Config) *task.Scheduler {
	mem := pool.New(cfg.Pool.CapacityBytes, cfg.Pool.MinBlockBytes)
	var backend task.Executor
	if cfg.Runtime.Serial {
		backend = executor.Serial{}
	} else {
		backend = &executor.WorkerPool{
			Workers:  cfg.Runtime.Workers,
			TeamSize: cfg.Runtime.TeamSize,
		}
	}
	return task.NewScheduler(mem, backend)
}

func runDemo(cfg *config.Config, name string, bus *events.EventBus) (any, error) {
	s := newScheduler(cfg)
	if bus != nil {
		stop := pollCounters(s, bus, time.Duration(cfg.Monitor.RefreshMillis)*time.Millisecond)
		defer stop()
	}
	return demos[name](s, bus)
}

// pollCounters publishes periodic counter snapshots until stopped.
func pollCounters(s *task.Scheduler, bus *events.EventBus, every time.Duration) (stop func()) {
	if every <= 0 {
		every = 200 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bus.Publish(events.QueueProgressEvent{
					CountAlloc: s.AllocatedTaskCount(),
					MaxAlloc:   s.AllocatedTaskCountMax(),
					AccumAlloc: s.AllocatedTaskCountAccum(),
					Timestamp:  time.Now(),
				})
			}
		}
	}()
	return func() { close(done) }
}

// runWithMonitor drives the demos behind the live TUI; the monitor exits
// when the bus closes after the last demo.
func runWithMonitor(cfg *config.Config, names []string) {
	bus := events.NewEventBus()
	p := tea.NewProgram(tui.New(bus), tea.WithAltScreen())

	go func() {
		// Let the monitor come up before events start flowing.
		time.Sleep(100 * time.Millisecond)
		for _, name := range names {
			if _, err := runDemo(cfg, name, bus); err != nil {
				log.Printf("ERROR: demo %s: %v", name, err)
			}
		}
		time.Sleep(500 * time.Millisecond)
		bus.Close()
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running monitor: %v\n", err)
		os.Exit(1)
	}
}
