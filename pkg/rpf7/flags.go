package rpf7

// ResourceSize reconstructs the true on-disk/uncompressed size of a resource
// file entry from its bit-packed system and graphics flag words. Resource
// entries store 0xFFFFFF in their on-disk size field and encode the real
// size across these flags instead; see the archive format's resource-file
// variant.
//
// The formula is monotonic in each of the five terms: increasing any one of
// sysflags' base bit, its virtual/physical memory fields, or gfxflags'
// virtual/physical fields never decreases the result, since every term is
// added, never subtracted or masked against another.
func ResourceSize(sysflags, gfxflags uint32) uint32 {
	var base uint32
	if (sysflags>>27)&1 != 0 {
		base = 0x10
	}

	vmem := (sysflags & 0x7FF) << ((sysflags >> 11) & 0xF)
	pmem := ((sysflags >> 15) & 0x7F) << ((sysflags >> 25) & 0xF)

	vgfx := (gfxflags & 0x7FF) << ((gfxflags >> 11) & 0xF)
	pgfx := ((gfxflags >> 15) & 0x7F) << ((gfxflags >> 25) & 0xF)

	return base + vmem + pmem + vgfx + pgfx
}
