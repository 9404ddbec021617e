// Completion: 100% - Macro table and condition evaluator complete
package hdrscan

// frame is one level of #if nesting
type frame struct {
	active bool // lines in the current branch are visible
	taken  bool // some branch of this #if chain has been active
}

// Conditions evaluates the conditional-compilation directives of one header
// against a macro table. It starts with a single always-active frame that
// can never be popped.
type Conditions struct {
	macros *MacroTable
	frames []frame
}

// NewConditions creates the evaluator for one header
func NewConditions(macros *MacroTable) *Conditions {
	return &Conditions{
		macros: macros,
		frames: []frame{{active: true, taken: true}},
	}
}

// Active reports whether lines are currently visible: every frame on the
// stack must be active.
func (c *Conditions) Active() bool {
	for _, f := range c.frames {
		if !f.active {
			return false
		}
	}
	return true
}

// Depth returns the number of open #if frames
func (c *Conditions) Depth() int {
	return len(c.frames) - 1
}

func (c *Conditions) push(cond bool) {
	do := cond && c.frames[len(c.frames)-1].active
	c.frames = append(c.frames, frame{active: do, taken: do})
}

func (c *Conditions) parentActive() bool {
	return c.frames[len(c.frames)-2].active
}

// If handles `#if NAME`. Only a single macro name is supported.
func (c *Conditions) If(expr string) {
	c.push(c.macros.Lookup(expr).Truthy())
}

// Ifdef handles `#ifdef NAME`
func (c *Conditions) Ifdef(name string) {
	c.push(c.macros.Defined(name))
}

// Ifndef handles `#ifndef NAME`
func (c *Conditions) Ifndef(name string) {
	c.push(!c.macros.Defined(name))
}

// ElseIf handles `#elseif NAME`. Only the active bit of the current frame
// changes: the branch is active when the parent is and NAME is truthy,
// whether or not an earlier branch was taken.
func (c *Conditions) ElseIf(expr string) {
	if len(c.frames) < 2 {
		return
	}
	top := &c.frames[len(c.frames)-1]
	do := c.parentActive() && c.macros.Lookup(expr).Truthy()
	top.active = do
	if do {
		top.taken = true
	}
}

// Else handles `#else`
func (c *Conditions) Else() {
	if len(c.frames) < 2 {
		return
	}
	top := &c.frames[len(c.frames)-1]
	top.active = c.parentActive() && !top.taken
	top.taken = true
}

// Endif handles `#endif`. A stray #endif leaves the stack untouched and
// returns false.
func (c *Conditions) Endif() bool {
	if len(c.frames) < 2 {
		return false
	}
	c.frames = c.frames[:len(c.frames)-1]
	return true
}
