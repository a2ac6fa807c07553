// beacon-probe simulates telemetry producers against a beacond collector.
//
// Default mode runs one or more producers, each holding its own connection
// and streaming random-walk samples at a random cadence until interrupted.
// -statistic performs a one-shot statistics request and prints the result;
// -console opens an interactive prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/client"
	"github.com/xtxerr/beacon/internal/logging"
	"github.com/xtxerr/beacon/internal/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "collector address")
	producers := flag.Int("producers", 1, "number of concurrent producers")
	statistic := flag.Bool("statistic", false, "request statistics once and exit")
	console := flag.Bool("console", false, "interactive console")
	flag.Parse()

	logging.Init(slog.LevelInfo, false)
	log := logging.Component("probe")

	if *statistic {
		if err := runStatistic(*addr); err != nil {
			log.Error("statistics", "error", err)
			os.Exit(1)
		}
		return
	}

	if *console {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			log.Error("console mode requires a terminal")
			os.Exit(1)
		}
		if err := runConsole(*addr); err != nil {
			log.Error("console", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *producers; i++ {
		g.Go(func() error {
			return runProducer(ctx, *addr, log)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("producer", "error", err)
		os.Exit(1)
	}
}

// runProducer streams random-walk samples until the context is canceled or
// the connection drops.
func runProducer(ctx context.Context, addr string, log *slog.Logger) error {
	id := uuid.NewString()

	c, err := client.Dial(addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer c.Close()

	log.Info("producer started", "uuid", id)

	walk := newWalk()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sendInterval()):
		}

		x, y := walk.step()
		if err := c.SendSample(id, time.Now().UnixNano(), x, y); err != nil {
			return fmt.Errorf("producer %s: %w", id, err)
		}
		log.Info("sample sent", "uuid", id, "x", x, "y", y)
	}
}

// sendInterval picks a random delay in the configured 5-30s band.
func sendInterval() time.Duration {
	span := config.ProbeIntervalMax - config.ProbeIntervalMin
	return config.ProbeIntervalMin + time.Duration(rand.Int64N(int64(span)))
}

// walk is a bounded 2-D random walk.
type walk struct {
	x, y float64
}

const walkStep = 5.0

func newWalk() *walk {
	return &walk{
		x: (rand.Float64()*2 - 1) * config.ProbeWalkBound,
		y: (rand.Float64()*2 - 1) * config.ProbeWalkBound,
	}
}

func (w *walk) step() (float64, float64) {
	w.x = clamp(w.x + (rand.Float64()*2-1)*walkStep)
	w.y = clamp(w.y + (rand.Float64()*2-1)*walkStep)
	return w.x, w.y
}

func clamp(v float64) float64 {
	if v > config.ProbeWalkBound {
		return config.ProbeWalkBound
	}
	if v < -config.ProbeWalkBound {
		return -config.ProbeWalkBound
	}
	return v
}

// runStatistic performs a one-shot statistics request.
func runStatistic(addr string) error {
	c, err := client.Dial(addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Statistics()
	if err != nil {
		return err
	}

	printStatistics(stats)
	return nil
}

// printStatistics renders the response as a table.
func printStatistics(stats *wire.Statistics) {
	fmt.Println("UUID X_1 Y_1 X_5 Y_5")
	for _, c := range stats.Clients {
		fmt.Printf("%s %f %f %f %f\n", c.UUID, c.X1, c.Y1, c.X5, c.Y5)
	}
}
