package flags

type Options struct {
	InterfaceName string

	MTU         int
	Foreground  bool
	ShowVersion bool
	ConfigFile  string
}

func NewOptions() *Options {
	return &Options{}
}
