package converter

import (
	"fmt"
	"strconv"
)

// IntArrayFlags collects a repeated integer flag. The first Set drops the
// default values.
type IntArrayFlags struct {
	Array   []int
	beenSet bool
}

func (f *IntArrayFlags) Set(valueStr string) error {
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return err
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	f.Array = append(f.Array, value)
	return nil
}

func (f *IntArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

// IsSet reports whether the flag was given on the command line.
func (f *IntArrayFlags) IsSet() bool {
	return f.beenSet
}
