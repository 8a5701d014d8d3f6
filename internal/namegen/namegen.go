// Package namegen hands out player names for a roster.
package namegen

import "fmt"

// pool is the fixed name pool, consumed in order so a given roster size
// always yields the same names.
var pool = []string{
	"Agnes", "Bertram", "Clara", "Dorothy", "Edgar", "Florence", "Gerald", "Harriet", "Irving", "Josephine",
	"Kenneth", "Lillian", "Milton", "Norma", "Otis", "Phyllis", "Quincy", "Ruth", "Stanley", "Thelma",
	"Ulysses", "Vera", "Walter", "Xenia", "Yvonne", "Zachary", "Albert", "Beatrice", "Cecil", "Della",
	"Eugene", "Frances", "Gilbert", "Helen", "Isaac", "Jennie", "Karl", "Lucille", "Morris", "Nina",
	"Oscar", "Pauline", "Raymond", "Sylvia", "Thomas", "Ursula", "Victor", "Wilma", "Xander", "Yolanda",
	"Aiden", "Bella", "Caleb", "Daisy", "Ethan", "Fiona", "Gavin", "Hazel", "Ian", "Jade",
	"Kai", "Luna", "Mason", "Nora", "Owen", "Piper", "Quinn", "Riley", "Sawyer", "Tessa",
	"Uri", "Violet", "Wyatt", "Ximena", "Yara", "Zane", "Aria", "Brody", "Chloe", "Declan",
	"Ellie", "Finn", "Grace", "Hudson", "Isla", "Jaxon", "Kinsley", "Leo", "Mila", "Nash",
	"Olivia", "Peyton", "Rowan", "Skylar", "Theo", "Uma", "Vivian", "Wren", "Xavier", "Zoe",
}

// Names returns n distinct player names. The pool covers 100 players;
// rosters beyond that fall back to numbered names.
func Names(n int) []string {
	if n <= 0 {
		return nil
	}
	names := make([]string, 0, n)
	for i := range n {
		if i < len(pool) {
			names = append(names, pool[i])
			continue
		}
		names = append(names, fmt.Sprintf("Player-%d", i+1))
	}
	return names
}
