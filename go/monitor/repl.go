package monitor

import (
	"io"

	"github.com/chzyer/readline"

	"github.com/lunixbochs/vcpu/go/machine"
	"github.com/lunixbochs/vcpu/go/models"
)

// rlio routes command output through readline so the prompt is redrawn.
type rlio struct {
	rl *readline.Instance
}

func (r rlio) Read(p []byte) (int, error)  { return 0, io.EOF }
func (r rlio) Write(p []byte) (int, error) { return r.rl.Stdout().Write(p) }

type Repl struct {
	ctx *Context
	rl  *readline.Instance
}

func NewRepl(m *machine.Machine) (*Repl, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "(vcpu) ",
		InterruptPrompt: "\n",
		HistoryFile:     models.CachePath("history"),
	})
	if err != nil {
		return nil, err
	}
	return &Repl{ctx: &Context{ReadWriter: rlio{rl}, M: m}, rl: rl}, nil
}

// Run reads commands until quit or end of input.
func (r *Repl) Run() {
	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			return
		}
		if !Run(r.ctx, line) {
			return
		}
	}
}

func (r *Repl) Close() error {
	return r.rl.Close()
}
