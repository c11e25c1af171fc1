package main

import (
	"github.com/lunixbochs/vcpu/go/cmd"

	_ "github.com/lunixbochs/vcpu/go/cmd/run"

	_ "github.com/lunixbochs/vcpu/go/cmd/inspect"
	_ "github.com/lunixbochs/vcpu/go/cmd/list"
)

func main() { cmd.Main() }
