package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"
)

//export playground_execute
func playground_execute(tables *C.char, script *C.char) *C.char {
	return C.CString(string(executeJSON(C.GoString(tables), C.GoString(script))))
}

//export playground_open_memory
func playground_open_memory() C.int {
	return C.int(openMemory())
}

//export playground_open_file
func playground_open_file(path *C.char) C.int {
	return C.int(openFile(C.GoString(path)))
}

//export playground_close
func playground_close(handle C.int) {
	closeHandle(int(handle))
}

//export playground_run
func playground_run(handle C.int, project *C.char, script *C.char) *C.char {
	return C.CString(string(runJSON(int(handle), C.GoString(project), C.GoString(script))))
}

//export playground_free
func playground_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
