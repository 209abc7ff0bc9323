package hub

// priorityTable maps each 4-bit active-link mask to the output position of
// every link: active links take positions 0..k-1 in ascending link order,
// inactive links fill the remaining positions, also ascending.
var priorityTable = buildPriorityTable()

func buildPriorityTable() [16][4]uint8 {
	var t [16][4]uint8
	for mask := range t {
		var pos uint8
		for link := 0; link < 4; link++ {
			if mask&(1<<link) != 0 {
				t[mask][link] = pos
				pos++
			}
		}
		for link := 0; link < 4; link++ {
			if mask&(1<<link) == 0 {
				t[mask][link] = pos
				pos++
			}
		}
	}
	return t
}

// PriorityOrder returns the output position of each link for activeMask.
// Bits above the low four are ignored.
func PriorityOrder(activeMask uint8) [4]uint8 {
	return priorityTable[activeMask&0x0f]
}

// LinkOrder packs PriorityOrder into the RegLinkOrder layout, two bits per
// link with link 0 in the low bits.
func LinkOrder(activeMask uint8) uint8 {
	order := PriorityOrder(activeMask)
	return order[3]<<6 | order[2]<<4 | order[1]<<2 | order[0]
}
