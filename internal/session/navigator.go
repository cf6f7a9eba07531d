package session

// Tab is one of the three views.
type Tab int

const (
	TabUpload Tab = iota
	TabChat
	TabStats
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabUpload, TabChat, TabStats}

func (t Tab) String() string {
	switch t {
	case TabUpload:
		return "Upload"
	case TabChat:
		return "Chat"
	case TabStats:
		return "Stats"
	default:
		return ""
	}
}

// UnlockFlag records that a library upload succeeded during this run. It is never cleared.
type UnlockFlag struct {
	set bool
}

func (f *UnlockFlag) Set()           { f.set = true }
func (f *UnlockFlag) Unlocked() bool { return f.set }

// Navigator tracks the active tab. Chat and Stats are reachable only once the flag is set.
type Navigator struct {
	active Tab
	flag   *UnlockFlag
}

// NewNavigator starts on [TabUpload].
func NewNavigator(flag *UnlockFlag) *Navigator {
	return &Navigator{active: TabUpload, flag: flag}
}

func (n *Navigator) Active() Tab { return n.active }

// Reachable reports whether t can be selected right now.
func (n *Navigator) Reachable(t Tab) bool {
	switch t {
	case TabUpload:
		return true
	case TabChat, TabStats:
		return n.flag.Unlocked()
	default:
		return false
	}
}

// Select activates t when reachable. Selecting a locked tab is inert and returns false.
func (n *Navigator) Select(t Tab) bool {
	if !n.Reachable(t) {
		return false
	}
	n.active = t
	return true
}

// Next selects the following reachable tab, wrapping around.
func (n *Navigator) Next() Tab { return n.step(1) }

// Prev selects the preceding reachable tab, wrapping around.
func (n *Navigator) Prev() Tab { return n.step(-1) }

func (n *Navigator) step(dir int) Tab {
	count := len(Tabs)
	for i := 1; i < count; i++ {
		t := Tab(((int(n.active)+dir*i)%count + count) % count)
		if n.Select(t) {
			break
		}
	}
	return n.active
}

// unlock sets the flag and forces the chat tab.
func (n *Navigator) unlock() {
	n.flag.Set()
	n.active = TabChat
}
