//go:build !unix

package export

import (
	"fmt"
	"os"
)

// checkWritable only verifies that dir exists; the temp file creation that
// follows reports permission problems.
func checkWritable(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
