package uring

import "sort"

// Opcodes used by the write engine
const (
	OpNop        uint8 = 0
	OpFsync      uint8 = 3
	OpWriteFixed uint8 = 5
	OpWrite      uint8 = 23
)

// opNames lists io_uring opcodes in kernel order, IORING_OP_NOP first
var opNames = []string{
	"IORING_OP_NOP",
	"IORING_OP_READV",
	"IORING_OP_WRITEV",
	"IORING_OP_FSYNC",
	"IORING_OP_READ_FIXED",
	"IORING_OP_WRITE_FIXED",
	"IORING_OP_POLL_ADD",
	"IORING_OP_POLL_REMOVE",
	"IORING_OP_SYNC_FILE_RANGE",
	"IORING_OP_SENDMSG",
	"IORING_OP_RECVMSG",
	"IORING_OP_TIMEOUT",
	"IORING_OP_TIMEOUT_REMOVE",
	"IORING_OP_ACCEPT",
	"IORING_OP_ASYNC_CANCEL",
	"IORING_OP_LINK_TIMEOUT",
	"IORING_OP_CONNECT",
	"IORING_OP_FALLOCATE",
	"IORING_OP_OPENAT",
	"IORING_OP_CLOSE",
	"IORING_OP_FILES_UPDATE",
	"IORING_OP_STATX",
	"IORING_OP_READ",
	"IORING_OP_WRITE",
	"IORING_OP_FADVISE",
	"IORING_OP_MADVISE",
	"IORING_OP_SEND",
	"IORING_OP_RECV",
	"IORING_OP_OPENAT2",
	"IORING_OP_EPOLL_CTL",
	"IORING_OP_SPLICE",
	"IORING_OP_PROVIDE_BUFFERS",
	"IORING_OP_REMOVE_BUFFERS",
	"IORING_OP_TEE",
	"IORING_OP_SHUTDOWN",
	"IORING_OP_RENAMEAT",
	"IORING_OP_UNLINKAT",
	"IORING_OP_MKDIRAT",
	"IORING_OP_SYMLINKAT",
	"IORING_OP_LINKAT",
	"IORING_OP_MSG_RING",
	"IORING_OP_FSETXATTR",
	"IORING_OP_SETXATTR",
	"IORING_OP_FGETXATTR",
	"IORING_OP_GETXATTR",
	"IORING_OP_SOCKET",
	"IORING_OP_URING_CMD",
	"IORING_OP_SEND_ZC",
	"IORING_OP_SENDMSG_ZC",
}

// NumOps is the number of opcodes this package knows by name
func NumOps() int { return len(opNames) }

// OpName returns the kernel name of an opcode
func OpName(op uint8) string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "IORING_OP_UNKNOWN"
}

// OpStatus is one line of a probe report
type OpStatus struct {
	Code      uint8
	Name      string
	Supported bool
}

// Probe is the set of opcodes a ring accepts
type Probe struct {
	supported map[uint8]bool
}

// NewProbe builds a probe by asking fn about every known opcode
func NewProbe(fn func(op uint8) bool) *Probe {
	p := &Probe{supported: make(map[uint8]bool, len(opNames))}
	for i := range opNames {
		if fn(uint8(i)) {
			p.supported[uint8(i)] = true
		}
	}
	return p
}

// Supported reports whether op is accepted by the kernel
func (p *Probe) Supported(op uint8) bool {
	return p != nil && p.supported[op]
}

// Report lists every known opcode in kernel order
func (p *Probe) Report() []OpStatus {
	out := make([]OpStatus, 0, len(opNames))
	for i, name := range opNames {
		out = append(out, OpStatus{Code: uint8(i), Name: name, Supported: p.Supported(uint8(i))})
	}
	return out
}

// SupportedOps returns the supported opcodes in ascending order
func (p *Probe) SupportedOps() []uint8 {
	if p == nil {
		return nil
	}
	ops := make([]uint8, 0, len(p.supported))
	for op := range p.supported {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
