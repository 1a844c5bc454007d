// Package roster models the parsed team roster that drives question
// generation. The compiler requires only that rows for the same team are
// groupable and that intra-team order is preserved; this package guarantees
// both by keeping rows in input order and grouping teams by first appearance.
package roster

// Entity is one roster row: a member of a team, optionally annotated with a
// role and the team's mentor.
type Entity struct {
	Name   string
	Team   string
	Role   string
	Mentor string
}

// Roster is an ordered, immutable collection of roster rows.
type Roster struct {
	entities  []Entity
	teamOrder []string
	byTeam    map[string][]Entity
}

// New builds a roster from rows, preserving input order. Teams are ordered by
// first appearance; members within a team keep their row order.
func New(rows []Entity) *Roster {
	r := &Roster{byTeam: make(map[string][]Entity)}
	for _, row := range rows {
		r.entities = append(r.entities, row)
		if _, ok := r.byTeam[row.Team]; !ok {
			r.teamOrder = append(r.teamOrder, row.Team)
		}
		r.byTeam[row.Team] = append(r.byTeam[row.Team], row)
	}
	return r
}

// Len reports the total number of rows.
func (r *Roster) Len() int {
	return len(r.entities)
}

// Teams returns the team keys in first-seen order.
func (r *Roster) Teams() []string {
	out := make([]string, len(r.teamOrder))
	copy(out, r.teamOrder)
	return out
}

// Members returns the entities of one team in input order.
func (r *Roster) Members(team string) []Entity {
	members := r.byTeam[team]
	out := make([]Entity, len(members))
	copy(out, members)
	return out
}

// Mentors derives a team→mentor mapping from the roster's mentor column,
// taking the first non-empty value per team. Teams without a mentor are
// absent from the result.
func (r *Roster) Mentors() map[string]string {
	mentors := make(map[string]string)
	for _, team := range r.teamOrder {
		for _, member := range r.byTeam[team] {
			if member.Mentor != "" {
				mentors[team] = member.Mentor
				break
			}
		}
	}
	return mentors
}
