//go:build darwin && cgo

package platform

/*
#include <stdint.h>
*/
import "C"

//export goMediaEnded
func goMediaEnded(token C.uintptr_t) {
	mediaEnded(uintptr(token))
}

//export goScreenParametersChanged
func goScreenParametersChanged() {
	screenParametersChanged()
}
