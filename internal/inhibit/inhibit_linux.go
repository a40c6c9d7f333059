//go:build linux

// Package inhibit keeps the display awake for the duration of a run.
// A screensaver or display blank firing mid-trial destroys the
// display-commit timestamps for that step, so the runner suppresses both
// while an experiment is active. Failure to acquire the inhibition is
// logged and ignored; it never blocks a run.
package inhibit

import (
	"github.com/godbus/dbus/v5"

	"predlab/internal/logging"
)

const (
	screenSaverService = "org.freedesktop.ScreenSaver"
	screenSaverPath    = "/org/freedesktop/ScreenSaver"
)

// Inhibitor holds an active screensaver inhibition.
type Inhibitor struct {
	conn   *dbus.Conn
	cookie uint32
	log    *logging.Logger
}

// Acquire requests a screensaver inhibition for the run. On any failure it
// returns an inert Inhibitor.
func Acquire(reason string, log *logging.Logger) *Inhibitor {
	if log == nil {
		log = logging.Default()
	}
	log = log.WithComponent("inhibit")

	conn, err := dbus.SessionBus()
	if err != nil {
		log.Warn("session bus unavailable, screen blanking not inhibited", "error", err)
		return &Inhibitor{log: log}
	}

	obj := conn.Object(screenSaverService, dbus.ObjectPath(screenSaverPath))
	var cookie uint32
	if err := obj.Call(screenSaverService+".Inhibit", 0, "predlab", reason).Store(&cookie); err != nil {
		log.Warn("screensaver inhibit failed", "error", err)
		conn.Close()
		return &Inhibitor{log: log}
	}

	log.Info("screen blanking inhibited for run", "cookie", cookie)
	return &Inhibitor{conn: conn, cookie: cookie, log: log}
}

// Release ends the inhibition. Safe on an inert Inhibitor.
func (i *Inhibitor) Release() {
	if i == nil || i.conn == nil {
		return
	}
	obj := i.conn.Object(screenSaverService, dbus.ObjectPath(screenSaverPath))
	if err := obj.Call(screenSaverService+".UnInhibit", 0, i.cookie).Err; err != nil {
		i.log.Warn("screensaver uninhibit failed", "error", err)
	}
	i.conn.Close()
	i.conn = nil
}
