package tensor

// Backend defines the interface that compute backends must implement.
// It covers exactly the operations the layer model and the compression
// pass exercise; there is no training surface.
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul performs 2-D matrix multiplication: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs a 2-D convolution over NCHW input.
	//
	// Kernel shape is [outC, inC/groups, kH, kW]. Stride, padding and
	// dilation are per-axis (height, width) pairs; groups splits input and
	// output channels into independent convolution groups (groups == inC
	// with one channel per group is a depthwise convolution).
	Conv2D(input, kernel *RawTensor, stride, padding, dilation [2]int, groups int) *RawTensor

	// MaxPool2D performs 2-D max pooling over NCHW input.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor

	// Layout operations
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor

	// Scalar operations
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Introspection
	Name() string
	Device() Device
}
