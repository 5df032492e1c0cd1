package loader

// Wire structs mirror schema.cue one to one. They exist only as a decode
// target; conversion into model types happens in convert.go.

type valueWire struct {
	Bool *bool   `yaml:"bool,omitempty"`
	Int  *int64  `yaml:"int,omitempty"`
	Rat  *string `yaml:"rat,omitempty"`
	Sym  *string `yaml:"sym,omitempty"`
}

type fluentRefWire struct {
	Name string     `yaml:"name"`
	Args []exprWire `yaml:"args,omitempty"`
}

type exprWire struct {
	Lit    *valueWire     `yaml:"lit,omitempty"`
	Fluent *fluentRefWire `yaml:"fluent,omitempty"`
	Param  *string        `yaml:"param,omitempty"`
	Not    *exprWire      `yaml:"not,omitempty"`
	Op     *string        `yaml:"op,omitempty"`
	Left   *exprWire      `yaml:"left,omitempty"`
	Right  *exprWire      `yaml:"right,omitempty"`
}

type timingWire struct {
	Anchor string  `yaml:"anchor"`
	Delay  *string `yaml:"delay,omitempty"`
}

type intervalWire struct {
	Lower     timingWire `yaml:"lower"`
	Upper     timingWire `yaml:"upper"`
	LowerOpen bool       `yaml:"lower_open,omitempty"`
	UpperOpen bool       `yaml:"upper_open,omitempty"`
}

type conditionWire struct {
	At       *string       `yaml:"at,omitempty"`
	Interval *intervalWire `yaml:"interval,omitempty"`
	Expr     exprWire      `yaml:"expr"`
}

type effectWire struct {
	At     string        `yaml:"at"`
	Fluent fluentRefWire `yaml:"fluent"`
	Kind   string        `yaml:"kind"`
	Value  exprWire      `yaml:"value"`
	When   *exprWire     `yaml:"when,omitempty"`
}

type continuousWire struct {
	Fluent   fluentRefWire `yaml:"fluent"`
	Kind     string        `yaml:"kind"`
	Rate     exprWire      `yaml:"rate"`
	Interval *intervalWire `yaml:"interval,omitempty"`
}

type durationWire struct {
	Lower     *string `yaml:"lower,omitempty"`
	Upper     *string `yaml:"upper,omitempty"`
	LowerOpen bool    `yaml:"lower_open,omitempty"`
	UpperOpen bool    `yaml:"upper_open,omitempty"`
}

type paramWire struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type fluentWire struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Params  []paramWire `yaml:"params,omitempty"`
	Default *valueWire  `yaml:"default,omitempty"`
}

type actionWire struct {
	Name       string           `yaml:"name"`
	Params     []paramWire      `yaml:"params,omitempty"`
	Durative   bool             `yaml:"durative,omitempty"`
	Duration   *durationWire    `yaml:"duration,omitempty"`
	Conditions []conditionWire  `yaml:"conditions,omitempty"`
	Effects    []effectWire     `yaml:"effects,omitempty"`
	Continuous []continuousWire `yaml:"continuous,omitempty"`
}

type timedGoalWire struct {
	Interval intervalWire `yaml:"interval"`
	Expr     exprWire     `yaml:"expr"`
}

type metricWire struct {
	Name string    `yaml:"name,omitempty"`
	Kind string    `yaml:"kind"`
	Expr *exprWire `yaml:"expr,omitempty"`
}

type problemWire struct {
	Name       string               `yaml:"name"`
	Fluents    []fluentWire         `yaml:"fluents,omitempty"`
	Actions    []actionWire         `yaml:"actions,omitempty"`
	Init       map[string]valueWire `yaml:"init,omitempty"`
	Goals      []exprWire           `yaml:"goals,omitempty"`
	TimedGoals []timedGoalWire      `yaml:"timed_goals,omitempty"`
	Invariants []exprWire           `yaml:"invariants,omitempty"`
	Metrics    []metricWire         `yaml:"metrics,omitempty"`
}

type instanceWire struct {
	ID     string      `yaml:"id,omitempty"`
	Action string      `yaml:"action"`
	Args   []valueWire `yaml:"args,omitempty"`
}

type activityWire struct {
	instanceWire `yaml:",inline"`
	Start        string  `yaml:"start"`
	Duration     *string `yaml:"duration,omitempty"`
}

type timepointWire struct {
	Kind      string `yaml:"kind"`
	Container string `yaml:"container,omitempty"`
}

type constraintWire struct {
	From  timepointWire `yaml:"from"`
	To    timepointWire `yaml:"to"`
	Lower *string       `yaml:"lower,omitempty"`
	Upper *string       `yaml:"upper,omitempty"`
}

type planWire struct {
	Kind        string              `yaml:"kind"`
	Activities  []activityWire      `yaml:"activities,omitempty"`
	Steps       []instanceWire      `yaml:"steps,omitempty"`
	Instances   []instanceWire      `yaml:"instances,omitempty"`
	Order       map[string][]string `yaml:"order,omitempty"`
	Constraints []constraintWire    `yaml:"constraints,omitempty"`
}
