package uringbench

import (
	"github.com/ehrlich-b/go-uringbench/internal/logging"
	"github.com/ehrlich-b/go-uringbench/internal/uring"
)

const probeEntries = 8

// ProbeKernel creates a short-lived ring and reports, for every known opcode,
// whether the running kernel supports it. With simulate set the report comes
// from the in-memory ring.
func ProbeKernel(kind string, simulate bool) ([]OpStatus, error) {
	var (
		ring uring.Ring
		err  error
	)
	if simulate {
		ring = uring.NewSim(uring.SimConfig{Entries: probeEntries})
	} else {
		ring, err = uring.NewRing(uring.Kind(kind), uring.Config{Entries: probeEntries})
		if err != nil {
			return nil, WrapError("SETUP_RING", err)
		}
	}
	defer ring.Close()

	report, err := probeRing(ring)
	if err != nil {
		return nil, WrapError("PROBE", err)
	}
	return report, nil
}

func probeRing(ring uring.Ring) ([]OpStatus, error) {
	probe, err := ring.Probe()
	if err != nil {
		return nil, err
	}
	return probe.Report(), nil
}

func logReport(logger *logging.Logger, report []OpStatus) {
	supported := 0
	for _, op := range report {
		if op.Supported {
			supported++
		}
		logger.Debug("opcode", "name", op.Name, "supported", op.Supported)
	}
	logger.Info("kernel opcode probe", "supported", supported, "known", len(report))
}
