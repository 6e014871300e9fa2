package tray

import (
	_ "embed"
	"errors"

	"github.com/getlantern/systray"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/ruvasqm/rate-tray/common"
)

var log = logger.GetOrCreate("tray")

// defaultIcon is shown until the first rendered update arrives
//
//go:embed icon.png
var defaultIcon []byte

const unreachableTooltip = "source unreachable"

// ArgsController defines the tray controller arguments
type ArgsController struct {
	Title string
	// Updates is the bounded hand-off channel filled by the scheduler
	Updates <-chan common.IconUpdate
	// OnTrigger is invoked when the user picks "Update Now"
	OnTrigger func()
	// OnStart is invoked once the tray resource is ready
	OnStart func()
	// OnExit is invoked when the tray loop terminates
	OnExit func()
}

// controller owns the native tray icon and menu. All bitmap and tooltip
// updates are applied by draining the update channel on the tray's own
// schedule; the scheduler never touches the tray resource directly.
type controller struct {
	args       ArgsController
	updateItem *systray.MenuItem
	quitItem   *systray.MenuItem
	done       chan struct{}
}

// NewController creates a new tray controller
func NewController(args ArgsController) (*controller, error) {
	if args.Updates == nil {
		return nil, errors.New("nil updates channel")
	}

	return &controller{
		args: args,
		done: make(chan struct{}),
	}, nil
}

// Run starts the system tray loop. This blocks the calling goroutine and must
// run on the main thread.
func (c *controller) Run() {
	systray.Run(c.onReady, c.onQuit)
}

// Quit signals the tray loop to exit
func (c *controller) Quit() {
	systray.Quit()
}

func (c *controller) onReady() {
	systray.SetIcon(defaultIcon)
	systray.SetTooltip(c.args.Title)

	header := systray.AddMenuItem(c.args.Title, "")
	header.Disable()

	systray.AddSeparator()
	c.updateItem = systray.AddMenuItem("Update Now", "Poll the source immediately")
	systray.AddSeparator()
	c.quitItem = systray.AddMenuItem("Quit", "Stop polling and exit")

	if c.args.OnStart != nil {
		c.args.OnStart()
	}

	go c.drainUpdates()
	go c.handleClicks()
}

func (c *controller) onQuit() {
	close(c.done)

	if c.args.OnExit != nil {
		c.args.OnExit()
	}
}

func (c *controller) drainUpdates() {
	for {
		select {
		case <-c.done:
			return
		case update := <-c.args.Updates:
			c.apply(update)
		}
	}
}

func (c *controller) apply(update common.IconUpdate) {
	if update.Icon == nil {
		if update.Stale {
			systray.SetTooltip(unreachableTooltip)
		}
		return
	}

	if len(update.Icon.Variants) > 0 {
		systray.SetIcon(update.Icon.Variants[0].PNG)
	}
	systray.SetTooltip(update.Icon.Tooltip)

	log.Debug("tray icon refreshed", "tooltip", update.Icon.Tooltip, "stale", update.Stale)
}

func (c *controller) handleClicks() {
	for {
		select {
		case <-c.done:
			return
		case <-c.updateItem.ClickedCh:
			log.Debug("manual update requested")
			if c.args.OnTrigger != nil {
				c.args.OnTrigger()
			}
		case <-c.quitItem.ClickedCh:
			systray.Quit()
		}
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *controller) IsInterfaceNil() bool {
	return c == nil
}
