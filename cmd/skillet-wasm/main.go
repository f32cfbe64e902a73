//go:build js && wasm

package main

import (
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-skillet/skillet"
)

var (
	engine   *skillet.Engine
	ioBuffer []float32 // interleaved, processed in place
	channels int
	bypassed bool
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmSetHeight", js.FuncOf(wasmSetHeight))
	js.Global().Set("wasmGetHeight", js.FuncOf(wasmGetHeight))
	js.Global().Set("wasmSetBypass", js.FuncOf(wasmSetBypass))
	js.Global().Set("wasmGetBufferPointer", js.FuncOf(wasmGetBufferPointer))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetState", js.FuncOf(wasmGetState))
	js.Global().Set("wasmSetState", js.FuncOf(wasmSetState))
	js.Global().Set("wasmTailSeconds", js.FuncOf(wasmTailSeconds))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM skillet module loaded")
	<-c
}

// wasmInit(sampleRate, channels, maxBlockSize) returns an error string or null.
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return "wasmInit needs sampleRate, channels, maxBlockSize"
	}
	sampleRate := args[0].Float()
	ch := args[1].Int()
	maxBlock := args[2].Int()

	e, err := skillet.New(nil)
	if err != nil {
		return err.Error()
	}
	if err := e.Prepare(sampleRate, maxBlock, ch); err != nil {
		return err.Error()
	}
	if engine != nil {
		e.SetHeight(engine.Height())
	}
	engine = e
	channels = ch
	ioBuffer = make([]float32, maxBlock*ch)

	println("Skillet initialized at", int(sampleRate), "Hz,", ch, "channels")
	return nil
}

func wasmSetHeight(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return nil
	}
	engine.SetHeight(skillet.ClampHeight(float32(args[0].Float())))
	return nil
}

func wasmGetHeight(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return 0
	}
	return float64(engine.Height())
}

func wasmSetBypass(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	bypassed = args[0].Bool()
	return nil
}

// wasmGetBufferPointer returns the offset of the interleaved I/O buffer in
// linear memory. JS writes input frames there before wasmProcessBlock.
func wasmGetBufferPointer(this js.Value, args []js.Value) interface{} {
	if len(ioBuffer) == 0 {
		return 0
	}
	return js.ValueOf(uintptr(unsafe.Pointer(&ioBuffer[0])))
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return 0
	}
	numFrames := args[0].Int()
	if capFrames := len(ioBuffer) / channels; numFrames > capFrames {
		numFrames = capFrames
	}
	if numFrames <= 0 {
		return 0
	}
	engine.ProcessInterleaved(ioBuffer[:numFrames*channels], channels, bypassed)
	return js.ValueOf(uintptr(unsafe.Pointer(&ioBuffer[0])))
}

// wasmGetState returns the persisted state as a Uint8Array.
func wasmGetState(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return nil
	}
	state := engine.State()
	arr := js.Global().Get("Uint8Array").New(len(state))
	js.CopyBytesToJS(arr, state)
	return arr
}

// wasmSetState(Uint8Array) returns an error string or null. A bad blob still
// leaves the engine at the default height.
func wasmSetState(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || engine == nil {
		return nil
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	if err := engine.LoadState(data); err != nil {
		return err.Error()
	}
	return nil
}

func wasmTailSeconds(this js.Value, args []js.Value) interface{} {
	if engine == nil {
		return 0
	}
	return engine.TailSeconds()
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}
