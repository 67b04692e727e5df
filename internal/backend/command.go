package backend

import (
	"fmt"
	"net/url"
	"strconv"

	"stinstaller/internal/steps"
)

type CommandKind string

const (
	CommandRunRange CommandKind = "run_range"
	CommandRunStep  CommandKind = "run_step"
	CommandPause    CommandKind = "pause"
)

// Command is a fire-and-forget execution directive. Its effect is observed
// only through later status queries.
type Command struct {
	Kind  CommandKind
	Start steps.StepID
	End   steps.StepID
	Step  steps.StepID
}

func RunRange(start, end steps.StepID) Command {
	return Command{Kind: CommandRunRange, Start: start, End: end}
}

func RunStep(step steps.StepID) Command {
	return Command{Kind: CommandRunStep, Step: step}
}

func Pause() Command {
	return Command{Kind: CommandPause}
}

func (c Command) Action() string {
	return string(c.Kind)
}

func (c Command) Validate() error {
	switch c.Kind {
	case CommandRunRange:
		if c.Start <= 0 || c.End < c.Start {
			return fmt.Errorf("invalid step range %d..%d", c.Start, c.End)
		}
	case CommandRunStep:
		if c.Step <= 0 {
			return fmt.Errorf("invalid step %d", c.Step)
		}
	case CommandPause:
	default:
		return fmt.Errorf("unknown command %q", c.Kind)
	}
	return nil
}

func (c Command) Params() url.Values {
	params := url.Values{}
	switch c.Kind {
	case CommandRunRange:
		params.Set("start", strconv.Itoa(int(c.Start)))
		params.Set("end", strconv.Itoa(int(c.End)))
	case CommandRunStep:
		params.Set("step", strconv.Itoa(int(c.Step)))
	}
	return params
}

func (c Command) String() string {
	switch c.Kind {
	case CommandRunRange:
		return fmt.Sprintf("run_range(%d,%d)", c.Start, c.End)
	case CommandRunStep:
		return fmt.Sprintf("run_step(%d)", c.Step)
	default:
		return string(c.Kind)
	}
}
