package config

// Quark X1000 keeps most of its uncore configuration behind the sideband
// message bus and never shipped declarative coverage, so its baseline is
// seeded in code. qrk.yaml style files still load afterwards and may
// override these entries.
func init() {
	RegisterOverride("qrk", func(s *Store) {
		s.Devices["HOSTCTL"] = Device{
			Name: "HOSTCTL", Bus: 0, Dev: 0, Fun: 0,
			VID: 0x8086, DIDs: []uint16{0x0958},
			Desc: "Quark SoC host bridge",
		}
		s.Register["HMBOUND"] = Register{
			Name: "HMBOUND", Kind: KindMsgBus, Port: 0x03, Offset: 0x08, Size: 4,
			Desc: "Host memory boundary",
			Fields: []Field{
				{Name: "LOCK", Bit: 0, Size: 1},
				{Name: "BOUNDARY", Bit: 12, Size: 20},
			},
		}
		s.Register["ESRAMCTL"] = Register{
			Name: "ESRAMCTL", Kind: KindMsgBus, Port: 0x05, Offset: 0x82, Size: 4,
			Desc: "Embedded SRAM control",
			Fields: []Field{
				{Name: "LOCK", Bit: 0, Size: 1},
			},
		}
		s.Controls["HostMemoryBoundaryLock"] = Control{
			Name: "HostMemoryBoundaryLock", Register: "HMBOUND", Field: "LOCK",
			Desc: "Locks the host memory boundary register",
		}
	})
}
