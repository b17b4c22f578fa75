package engine

// Unwind collects release funcs and runs them in reverse order of
// acquisition.
type Unwind struct {
	steps []func()
}

func (u *Unwind) Add(release func()) {
	if release != nil {
		u.steps = append(u.steps, release)
	}
}

func (u *Unwind) Len() int {
	return len(u.steps)
}

// Run releases everything acquired so far. It is safe to call more than once.
func (u *Unwind) Run() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
	u.steps = nil
}
