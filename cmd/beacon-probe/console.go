// Interactive console for poking at a running collector.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/google/uuid"

	"github.com/xtxerr/beacon/internal/client"
)

// runConsole opens a prompt bound to one connection. The connection doubles
// as a producer: "send" streams a sample under a console-scoped uuid, so
// "stats" afterwards shows it aggregated.
func runConsole(addr string) error {
	c, err := client.Dial(addr, 5*time.Second)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	fmt.Printf("connected to %s as %s\n", addr, id)

	walk := newWalk()
	executor := func(in string) {
		switch strings.TrimSpace(in) {
		case "":

		case "send":
			x, y := walk.step()
			if err := c.SendSample(id, time.Now().UnixNano(), x, y); err != nil {
				fmt.Printf("send failed: %v\n", err)
				return
			}
			fmt.Printf("sent x=%f y=%f\n", x, y)

		case "burst":
			for i := 0; i < 10; i++ {
				x, y := walk.step()
				if err := c.SendSample(id, time.Now().UnixNano(), x, y); err != nil {
					fmt.Printf("send failed: %v\n", err)
					return
				}
			}
			fmt.Println("sent 10 samples")

		case "stats":
			stats, err := c.Statistics()
			if err != nil {
				fmt.Printf("statistics failed: %v\n", err)
				return
			}
			printStatistics(stats)

		case "rekey":
			id = uuid.NewString()
			walk = newWalk()
			fmt.Printf("now sending as %s\n", id)

		case "quit", "exit":
			c.Close()
			os.Exit(0)

		default:
			fmt.Println("commands: send, burst, stats, rekey, quit")
		}
	}

	completer := func(d prompt.Document) []prompt.Suggest {
		suggestions := []prompt.Suggest{
			{Text: "send", Description: "send one random-walk sample"},
			{Text: "burst", Description: "send ten samples"},
			{Text: "stats", Description: "request rolling-window statistics"},
			{Text: "rekey", Description: "switch to a fresh producer uuid"},
			{Text: "quit", Description: "close the connection and exit"},
		}
		return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
	}

	p := prompt.New(executor, completer,
		prompt.OptionPrefix("beacon> "),
		prompt.OptionTitle("beacon-probe"),
	)
	p.Run()
	return nil
}
