// Package action defines the closed set of dispatcher verbs and builds
// the ordered queue of actions from caller intent.
package action

import (
	"fmt"
)

// Verb identifies one backend operation. The set is closed; each verb
// maps to a backend script of the same name.
type Verb int

const (
	Install Verb = iota
	Config
	Default
	AddOption
	DelOption
	GetOption
)

// String returns the script name of the verb
func (v Verb) String() string {
	switch v {
	case Install:
		return "install"
	case Config:
		return "config"
	case Default:
		return "default"
	case AddOption:
		return "add-option"
	case DelOption:
		return "del-option"
	case GetOption:
		return "get-option"
	default:
		return fmt.Sprintf("verb(%d)", int(v))
	}
}

// Action is one queued operation: a verb and its optional argument.
// Actions are immutable once queued and consumed exactly once.
type Action struct {
	Verb Verb
	Arg  string
}

// String renders the action for log records
func (a Action) String() string {
	if a.Arg == "" {
		return a.Verb.String()
	}
	return a.Verb.String() + " " + a.Arg
}

// Request is the parsed caller intent of one invocation. Show is handled
// before any queue is built and never becomes an Action.
type Request struct {
	Install   bool
	Config    bool
	Default   string
	AddOption string
	DelOption string
	GetOption string
}

// Build maps a request to the ordered action queue. The order is fixed:
// install runs before config, config before entry manipulation, so that
// combined flags behave the same as separate invocations in that order.
func Build(req Request) []Action {
	var queue []Action

	if req.Install {
		queue = append(queue, Action{Verb: Install})
	}
	if req.Config {
		queue = append(queue, Action{Verb: Config})
	}
	if req.Default != "" {
		queue = append(queue, Action{Verb: Default, Arg: req.Default})
	}
	if req.AddOption != "" {
		queue = append(queue, Action{Verb: AddOption, Arg: req.AddOption})
	}
	if req.DelOption != "" {
		queue = append(queue, Action{Verb: DelOption, Arg: req.DelOption})
	}
	if req.GetOption != "" {
		queue = append(queue, Action{Verb: GetOption, Arg: req.GetOption})
	}

	return queue
}

// BuildLegacy maps a legacy-compat invocation to its queue: always a
// config action, with an install action prepended when reinit is set.
// Install must run before config in that case.
func BuildLegacy(reinit bool) []Action {
	queue := []Action{{Verb: Config}}

	if reinit {
		queue = append([]Action{{Verb: Install}}, queue...)
	}

	return queue
}
