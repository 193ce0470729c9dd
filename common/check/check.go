package check

import "fmt"

// PanicIfErr panics on a non-nil error. Use it for conditions that indicate
// a programming error rather than a recoverable failure.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

func PanicIfNot(flag bool) {
	if !flag {
		panic("condition not met")
	}
}

func PanicIfNotf(flag bool, format string, args ...any) {
	if !flag {
		panic(fmt.Sprintf(format, args...))
	}
}
