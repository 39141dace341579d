// Package assignmentpolicy computes legal rooms and partners for self-service
// assignment. Every function is pure; randomness comes in as a *rand.Rand so
// decisions are reproducible under a seeded generator.
package assignmentpolicy

import (
	"math/rand/v2"
	"slices"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// Strategy chooses among legal candidate rooms.
type Strategy string

const (
	// StrategyRandom picks uniformly among all candidates.
	StrategyRandom Strategy = "random"
	// StrategyBalanced restricts to the least-occupied candidates first.
	StrategyBalanced Strategy = "balanced"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyRandom, StrategyBalanced:
		return Strategy(s), true
	}
	return "", false
}

// Candidates is the result of a candidate computation. Degraded is set when
// no room satisfied the normal rule and the fallback set was used instead.
type Candidates struct {
	Rooms    []int
	Degraded bool
}

// Occupancy counts seated participants per room 1..roomCount.
func Occupancy(participants []tournamenttypes.Participant, roomCount int) map[int]int {
	occ := make(map[int]int, roomCount)
	for r := 1; r <= roomCount; r++ {
		occ[r] = 0
	}
	for _, p := range participants {
		if p.Room != nil {
			occ[*p.Room]++
		}
	}
	return occ
}

// StrokeCandidates returns the rooms p may join in stroke mode: rooms with a
// free seat and no occupant from p's group. When group exclusion cannot be
// satisfied the result falls back to every room with a free seat and is
// flagged Degraded. An empty result means every room is full.
func StrokeCandidates(p tournamenttypes.Participant, participants []tournamenttypes.Participant, roomCount int) Candidates {
	occ := Occupancy(participants, roomCount)
	groups := make(map[int]map[int]bool, roomCount)
	for _, q := range participants {
		if q.Room == nil || q.ID == p.ID {
			continue
		}
		if groups[*q.Room] == nil {
			groups[*q.Room] = make(map[int]bool)
		}
		groups[*q.Room][q.Group] = true
	}

	var legal, open []int
	for r := 1; r <= roomCount; r++ {
		if occ[r] >= tournamenttypes.RoomCapacity {
			continue
		}
		open = append(open, r)
		if !groups[r][p.Group] {
			legal = append(legal, r)
		}
	}
	if len(legal) > 0 {
		return Candidates{Rooms: legal}
	}
	return Candidates{Rooms: open, Degraded: len(open) > 0}
}

// FourballCandidates returns rooms with at least two free seats, counting
// every occupant regardless of role. If none exist it falls back to the rooms
// with the globally minimum occupancy.
func FourballCandidates(participants []tournamenttypes.Participant, roomCount int) Candidates {
	occ := Occupancy(participants, roomCount)

	var rooms []int
	for r := 1; r <= roomCount; r++ {
		if occ[r] <= tournamenttypes.RoomCapacity-2 {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) > 0 {
		return Candidates{Rooms: rooms}
	}
	return Candidates{Rooms: minOccupied(allRooms(roomCount), occ), Degraded: true}
}

// FreeGroup2Pool lists g2 participants with neither a room nor a partner.
func FreeGroup2Pool(participants []tournamenttypes.Participant) []tournamenttypes.ParticipantID {
	var pool []tournamenttypes.ParticipantID
	for _, p := range participants {
		if p.RoleIn(tournamenttypes.ModeFourball) == tournamenttypes.RoleG2 && p.Room == nil && p.Partner == nil {
			pool = append(pool, p.ID)
		}
	}
	return pool
}

// Select picks one room from candidates. ok is false when candidates is empty.
func Select(candidates []int, occupancy map[int]int, strategy Strategy, rng *rand.Rand) (room int, ok bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	pool := candidates
	if strategy == StrategyBalanced {
		pool = minOccupied(candidates, occupancy)
	}
	return pool[rng.IntN(len(pool))], true
}

// PickPartner draws a partner uniformly from pool.
func PickPartner(pool []tournamenttypes.ParticipantID, rng *rand.Rand) (tournamenttypes.ParticipantID, bool) {
	if len(pool) == 0 {
		return "", false
	}
	return pool[rng.IntN(len(pool))], true
}

func minOccupied(rooms []int, occ map[int]int) []int {
	if len(rooms) == 0 {
		return nil
	}
	lowest := occ[rooms[0]]
	for _, r := range rooms[1:] {
		lowest = min(lowest, occ[r])
	}
	out := slices.DeleteFunc(slices.Clone(rooms), func(r int) bool { return occ[r] != lowest })
	return out
}

func allRooms(roomCount int) []int {
	rooms := make([]int, roomCount)
	for i := range rooms {
		rooms[i] = i + 1
	}
	return rooms
}
