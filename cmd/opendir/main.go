// Command opendir is a terminal, two-panel file manager in the style of
// Midnight Commander: browse, copy, move, edit, view, diff and manage
// processes without leaving the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	topconfig "github.com/mongsil1012/opendir/config"
	"github.com/mongsil1012/opendir/hub"
	"github.com/mongsil1012/opendir/internal/app"
	"github.com/mongsil1012/opendir/internal/binding"
	"github.com/mongsil1012/opendir/internal/config"
	"github.com/mongsil1012/opendir/internal/gotopath"
	"github.com/mongsil1012/opendir/internal/handler"
	"github.com/mongsil1012/opendir/internal/panel"
	"github.com/mongsil1012/opendir/internal/remote"
	"github.com/mongsil1012/opendir/internal/render"
	"github.com/mongsil1012/opendir/internal/theme"
	"github.com/mongsil1012/opendir/internal/util"
	"github.com/mongsil1012/opendir/internal/vfs"
	"github.com/mongsil1012/opendir/internal/viewer"
)

// appName is the settings-directory name under $HOME, per §6.
const appName = "opendir"

// version is set by the release build via -ldflags "-X main.version=...".
var version string

// CmdOptions are the command-line flags, parsed with go-flags.
type CmdOptions struct {
	Help    bool   `short:"h" long:"help" description:"show this help message and exit"`
	Version bool   `long:"version" description:"print the version and exit"`
	Height  string `long:"height" description:"inline region height: an absolute line count or a percentage, e.g. \"20\" or \"50%\""`
	Left    string `long:"left" description:"starting path for the left panel"`
	Right   string `long:"right" description:"starting path for the right panel"`
}

func showHelp() {
	const v = `
Usage: opendir [options] [PATH]

Options:
  -h, --help       show this help message and exit
  --version        print the version and exit
  --height=SPEC    inline region height: lines ("20") or percentage ("50%")
  --left=PATH      starting path for the left panel
  --right=PATH     starting path for the right panel
`
	fmt.Fprint(os.Stderr, v)
}

func main() {
	var st int
	defer func() { os.Exit(st) }()

	opts := &CmdOptions{}
	p := flags.NewParser(opts, flags.PrintErrors)
	args, err := p.Parse()
	if err != nil {
		showHelp()
		st = 1
		return
	}

	if opts.Help {
		showHelp()
		return
	}
	if opts.Version {
		fmt.Fprintf(os.Stderr, "opendir: %s\n", version)
		return
	}

	if err := run(opts, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		st = 1
	}
}

// application bundles the long-lived dependencies that screens reach
// back into: the active filesystem, the resolved home directory and
// the loaded settings. Screens hold a pointer to it instead of each
// taking their own copies, so a goto/connect/bookmark action taken in
// one screen is visible to the next.
type application struct {
	fs       vfs.Filesystem
	homeDir  string
	settings *config.Settings
	loop     *app.Loop
	hub      *hub.Hub
	bridge   *render.Bridge
	router   *handler.Router
	bindings map[binding.Context]*binding.Map
}

// bridgeSuspender adapts render.Bridge's bare Suspend/Resume to
// internal/handler.Suspender's error-returning signature.
type bridgeSuspender struct{ b *render.Bridge }

func (s bridgeSuspender) Suspend() error {
	s.b.Suspend()
	return nil
}

func (s bridgeSuspender) Resume() error {
	s.b.Resume()
	return nil
}

// routerConfigFrom adapts the Settings Store's extension_handler schema
// to the map[string][]string handler.NewRouter expects.
func routerConfigFrom(cfg map[string]config.ExtensionHandlerConfig) map[string][]string {
	out := make(map[string][]string, len(cfg))
	for pattern, h := range cfg {
		out[pattern] = h.Commands
	}
	return out
}

func run(opts *CmdOptions, args []string) error {
	home, err := util.Homedir()
	if err != nil {
		return errors.Wrap(err, "failed to resolve home directory")
	}

	settings, err := config.Load(appName)
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	if err := theme.EnsureBuiltins(appName); err != nil {
		return errors.Wrap(err, "failed to install built-in themes")
	}
	th, err := theme.Load(appName, settings.Theme.Name)
	if err != nil {
		th = theme.New(settings.Theme.Name)
	}

	bindings, err := binding.BuildAll(settings.Keybindings)
	if err != nil {
		return errors.Wrap(err, "failed to build keybindings")
	}

	heightSpecStr := opts.Height
	if heightSpecStr == "" {
		heightSpecStr = "100%"
	}
	heightSpec, err := topconfig.ParseHeightSpec(heightSpecStr)
	if err != nil {
		return errors.Wrap(err, "invalid --height")
	}
	inline := heightSpec.IsPercent && heightSpec.Value < 100 || !heightSpec.IsPercent

	leftPath := firstNonEmpty(opts.Left, settings.LeftPanel.Path, ".")
	rightPath := firstNonEmpty(opts.Right, settings.RightPanel.Path, leftPath)
	if len(args) > 0 {
		leftPath = args[0]
	}

	fs := vfs.Local{}

	left := panel.New("left", fs, leftPath)
	left.ShowHidden = settings.LeftPanel.ShowHidden
	left.SortBy(settings.LeftPanel.SortKey)
	left.SortOrder = settings.LeftPanel.SortOrder
	if err := left.Refresh(); err != nil {
		return errors.Wrapf(err, "failed to list %s", leftPath)
	}

	right := panel.New("right", fs, rightPath)
	right.ShowHidden = settings.RightPanel.ShowHidden
	right.SortBy(settings.RightPanel.SortKey)
	right.SortOrder = settings.RightPanel.SortOrder
	if err := right.Refresh(); err != nil {
		return errors.Wrapf(err, "failed to list %s", rightPath)
	}

	activeIdx := 0
	if settings.ActivePanel == "right" {
		activeIdx = 1
	}
	left.Active = activeIdx == 0
	right.Active = activeIdx == 1

	a := &application{
		fs:       fs,
		homeDir:  home,
		settings: settings,
		router:   handler.NewRouter(routerConfigFrom(settings.ExtensionHandler)),
		bindings: bindings,
	}

	root := &filePanelScreen{app: a, panels: []*panel.Panel{left, right}, active: activeIdx}

	bridge := render.New(heightSpec, inline)
	if err := bridge.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize terminal")
	}
	defer bridge.Close()
	a.bridge = bridge

	h := hub.New(8)
	a.hub = h
	stack := app.NewStack(root)
	loop := app.New(bridge, h, stack, bindings, th)
	loop.OnWorkerEvent = a.onWorkerEvent
	a.loop = loop

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := loop.Run(ctx); err != nil && errors.Cause(err) != context.Canceled {
		return err
	}

	var activePath string
	if root.active == 0 {
		activePath = left.Path
	} else {
		activePath = right.Path
	}
	settings.LeftPanel.Path = left.Path
	settings.RightPanel.Path = right.Path
	if root.active == 1 {
		settings.ActivePanel = "right"
	} else {
		settings.ActivePanel = "left"
	}
	if err := config.Save(appName, settings); err != nil {
		return errors.Wrap(err, "failed to save settings")
	}
	return errors.Wrap(config.WriteLastDir(appName, activePath), "failed to write last directory")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// openGoToPath pushes a gotoScreen bound to p onto the Input Loop's stack.
func (a *application) openGoToPath(p *panel.Panel) {
	a.loop.Stack().Push(&gotoScreen{app: a, dlg: gotopath.New(), target: p})
}

// openViewer loads the entry under p's cursor and pushes a viewerScreen
// over it. Directories and unreadable files are silently ignored; the
// status bar already reflects the current entry, so there's no
// additional error surface worth a dialog for this action.
func (a *application) openViewer(p *panel.Panel) {
	e, ok := p.CurrentEntry()
	if !ok || e.IsDir {
		return
	}
	path := p.FS.Join(p.Path, e.Name)
	v, err := viewer.Load(p.FS, path)
	if err != nil {
		return
	}
	a.loop.Stack().Push(&viewerScreen{app: a, path: path, v: v})
}

// applyGoToPathAction interprets the Action returned by Dialog.Enter,
// navigating target or acting on bookmarks/profiles as needed.
func (a *application) applyGoToPathAction(act gotopath.Action, target *panel.Panel) {
	switch act.Kind {
	case gotopath.ActionNavigate:
		_ = target.Goto(act.Path)
	case gotopath.ActionOpenConnectionDialog:
		a.openConnectionDialog(act.Profile, target)
	case gotopath.ActionToggleBookmark:
		updated, _ := target.ToggleBookmark(a.settings.Bookmarks)
		a.settings.Bookmarks = updated
	case gotopath.ActionDeleteBookmark:
		if act.Index >= 0 && act.Index < len(a.settings.Bookmarks) {
			a.settings.Bookmarks = append(a.settings.Bookmarks[:act.Index], a.settings.Bookmarks[act.Index+1:]...)
		}
	case gotopath.ActionDeleteProfile:
		if act.Index >= 0 && act.Index < len(a.settings.RemoteProfiles) {
			a.settings.RemoteProfiles = append(a.settings.RemoteProfiles[:act.Index], a.settings.RemoteProfiles[act.Index+1:]...)
		}
	case gotopath.ActionEditProfile:
		a.openEditProfileDialog(act.Profile)
	}
}

// dialProfile connects to a RemoteProfile with the given password (used
// only for config.AuthPassword; key-file profiles ignore it) and mounts
// the resulting session's Filesystem onto target. Connection attempts
// are bounded by remote.DefaultConnectTimeout; the host key is not
// verified (ssh.InsecureIgnoreHostKey accepts any key on every
// connection), since there is no known-hosts store in the Settings Store
// to check it against (documented in DESIGN.md).
func (a *application) dialProfile(profile *config.RemoteProfile, password string, target *panel.Panel) {
	uri := remote.URI{User: profile.User, Host: profile.Host, Port: profile.Port, Path: "/"}

	var auth remote.AuthMethod
	switch profile.Auth {
	case config.AuthKeyFile:
		key, err := os.ReadFile(profile.KeyPath)
		if err != nil {
			a.hub.SendStatusMsg(context.Background(), "failed to read key file: "+err.Error(), 5*time.Second)
			return
		}
		auth = remote.KeyFileAuth(key)
	default:
		auth = remote.PasswordAuth(password)
	}

	fs, err := remote.Dial(uri, auth, ssh.InsecureIgnoreHostKey(), remote.DefaultConnectTimeout)
	if err != nil {
		a.hub.SendStatusMsg(context.Background(), "connection failed: "+err.Error(), 5*time.Second)
		return
	}

	target.FS = fs
	if err := target.Goto("/"); err != nil {
		a.hub.SendStatusMsg(context.Background(), "connected, but failed to list /: "+err.Error(), 5*time.Second)
		return
	}
	a.hub.SendStatusMsg(context.Background(), "connected to "+profile.Host, 3*time.Second)
}

// openConnectionDialog prompts for a password when profile needs one,
// then dials synchronously; a key-file profile dials immediately since
// it needs no interactive input. Connection setup is comparatively
// short (a handshake, not a data transfer), so unlike pack/unpack it
// doesn't need the worker/hub plumbing — it runs on the Input Loop
// goroutine directly, blocking key dispatch for the dial's duration.
func (a *application) openConnectionDialog(profile *config.RemoteProfile, target *panel.Panel) {
	if profile.Auth == config.AuthKeyFile {
		a.dialProfile(profile, "", target)
		return
	}
	form := newFormScreen("Connect to "+profile.User+"@"+profile.Host, []string{"Password"}, []bool{true}, func(values []string) {
		a.dialProfile(profile, values[0], target)
	})
	a.loop.Stack().Push(form)
}

// openEditProfileDialog lets the user revise a saved remote profile's
// host/user/port fields in place.
func (a *application) openEditProfileDialog(profile *config.RemoteProfile) {
	form := newFormScreen("Edit "+profile.Name, []string{"Host", "User", "Port"}, nil, func(values []string) {
		if values[0] != "" {
			profile.Host = values[0]
		}
		if values[1] != "" {
			profile.User = values[1]
		}
		if port, err := strconv.Atoi(values[2]); err == nil && port > 0 {
			profile.Port = port
		}
	})
	form.fields[0].input.Set(profile.Host)
	form.fields[1].input.Set(profile.User)
	form.fields[2].input.Set(strconv.Itoa(profile.Port))
	a.loop.Stack().Push(form)
}

// onWorkerEvent folds a background job's completion into a status
// message, per the Input Loop's documented OnWorkerEvent hook.
func (a *application) onWorkerEvent(ctx context.Context, ev hub.WorkerEvent) {
	switch ev.Kind {
	case hub.WorkerDone:
		a.hub.SendStatusMsg(ctx, ev.JobID+": "+ev.Message, 4*time.Second)
	case hub.WorkerFailed:
		msg := ev.JobID + " failed"
		if ev.Err != nil {
			msg += ": " + ev.Err.Error()
		}
		a.hub.SendStatusMsg(ctx, msg, 6*time.Second)
	}
}
