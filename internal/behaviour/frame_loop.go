package behaviour

// Behaviour is a per-frame hook. Start runs once, right before the first
// Update it receives.
type Behaviour interface {
	Start()
	Update(delta float64)
}

// Func adapts a plain update function into a Behaviour with an empty Start.
type Func func(delta float64)

func (f Func) Start() {}

func (f Func) Update(delta float64) { f(delta) }

type behaviourWrapper struct {
	name      string
	behaviour Behaviour
	started   bool
}

// FrameLoop runs its behaviours once per frame in registration order.
type FrameLoop struct {
	behaviours []behaviourWrapper
	frames     uint64
}

func NewFrameLoop() *FrameLoop {
	return &FrameLoop{}
}

func (l *FrameLoop) Add(name string, b Behaviour) {
	if b == nil {
		return
	}
	l.behaviours = append(l.behaviours, behaviourWrapper{name: name, behaviour: b})
}

// Remove drops the behaviour registered under name, keeping the order of the
// rest.
func (l *FrameLoop) Remove(name string) bool {
	for i := range l.behaviours {
		if l.behaviours[i].name == name {
			l.behaviours = append(l.behaviours[:i], l.behaviours[i+1:]...)
			return true
		}
	}
	return false
}

func (l *FrameLoop) Clear() {
	l.behaviours = l.behaviours[:0]
}

func (l *FrameLoop) Len() int {
	return len(l.behaviours)
}

// Names lists registered behaviours in run order.
func (l *FrameLoop) Names() []string {
	names := make([]string, len(l.behaviours))
	for i, b := range l.behaviours {
		names[i] = b.name
	}
	return names
}

func (l *FrameLoop) Frames() uint64 {
	return l.frames
}

func (l *FrameLoop) Run(delta float64) {
	for i := range l.behaviours {
		if !l.behaviours[i].started {
			l.behaviours[i].behaviour.Start()
			l.behaviours[i].started = true
		}
		l.behaviours[i].behaviour.Update(delta)
	}
	l.frames++
}
