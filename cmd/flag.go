package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag couples the viper key of a setting with the cli flag it is bound to.
// The typed builders return a Bind method matching the flag's value type.
type Flag struct {
	Config string
	Cli    string
}

func NewFlag(config, cli string) *Flag {
	return &Flag{Config: config, Cli: cli}
}

// bind registers the cli flag via register and binds the viper key to it.
// A failing bind is a programming error, so it panics.
func (f *Flag) bind(cmd *cobra.Command, register func(flags *pflag.FlagSet)) {
	register(cmd.PersistentFlags())
	if err := viper.BindPFlag(f.Config, cmd.PersistentFlags().Lookup(f.Cli)); err != nil {
		panic(err)
	}
}

type StringFlag struct {
	f *Flag
}

func (f *Flag) String() *StringFlag {
	return &StringFlag{f: f}
}

func (s *StringFlag) Bind(cmd *cobra.Command, value, usage string) {
	s.f.bind(cmd, func(flags *pflag.FlagSet) {
		flags.String(s.f.Cli, value, usage)
	})
}

type StringPFlag struct {
	f  *Flag
	sh string
}

func (f *Flag) StringP(shorthand string) *StringPFlag {
	return &StringPFlag{f: f, sh: shorthand}
}

func (s *StringPFlag) Bind(cmd *cobra.Command, value, usage string) {
	s.f.bind(cmd, func(flags *pflag.FlagSet) {
		flags.StringP(s.f.Cli, s.sh, value, usage)
	})
}

type IntFlag struct {
	f *Flag
}

func (f *Flag) Int() *IntFlag {
	return &IntFlag{f: f}
}

func (i *IntFlag) Bind(cmd *cobra.Command, value int, usage string) {
	i.f.bind(cmd, func(flags *pflag.FlagSet) {
		flags.Int(i.f.Cli, value, usage)
	})
}

type Float64Flag struct {
	f *Flag
}

func (f *Flag) Float64() *Float64Flag {
	return &Float64Flag{f: f}
}

func (fl *Float64Flag) Bind(cmd *cobra.Command, value float64, usage string) {
	fl.f.bind(cmd, func(flags *pflag.FlagSet) {
		flags.Float64(fl.f.Cli, value, usage)
	})
}
