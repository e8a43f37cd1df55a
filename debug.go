//go:build encrefs_debug

package encrefs

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
