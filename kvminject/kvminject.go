// Package kvminject implements pic.VCPUInjector against a real Linux KVM
// vCPU file descriptor, using the KVM_INTERRUPT ioctl via
// golang.org/x/sys/unix.
package kvminject

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// kvmInterrupt is KVM_INTERRUPT, _IOW(KVMIO, 0x86, __u32) in <linux/kvm.h>.
const kvmInterrupt = 0x4004ae86

// Injector injects ExtINT vectors into a fixed set of vCPU file descriptors
// via KVM_INTERRUPT. It implements pic.VCPUInjector.
type Injector struct {
	vcpuFDs []int
}

// New wraps the given vCPU file descriptors, indexed by vCPU ID.
func New(vcpuFDs []int) *Injector {
	return &Injector{vcpuFDs: vcpuFDs}
}

// InjectExtINT raises vcpuID's virtual INTR line. With no in-kernel irqchip,
// KVM treats KVM_INTERRUPT as a level-triggered ExtINT notification, not a
// vector carrier: the guest acknowledges with an INTA cycle that the caller
// is expected to answer from pic.Controller.Pending, the same two-step
// handshake vpic_notify_intr documents for virtual-wire mode.
func (inj *Injector) InjectExtINT(vcpuID int) error {
	if vcpuID < 0 || vcpuID >= len(inj.vcpuFDs) {
		return fmt.Errorf("kvminject: vcpu %d out of range (have %d)", vcpuID, len(inj.vcpuFDs))
	}
	fd := inj.vcpuFDs[vcpuID]

	if err := unix.IoctlSetInt(fd, kvmInterrupt, 0); err != nil {
		return fmt.Errorf("kvminject: KVM_INTERRUPT on vcpu %d failed: %w", vcpuID, err)
	}
	return nil
}
