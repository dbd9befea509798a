// Package prompts holds the fixed catalog of pixel-art prompts used to
// drive image generation.
package prompts

import "math/rand/v2"

var catalog = [...]string{
	"Pixel art of a tiny knight resting by a campfire, 16-bit style, warm colors",
	"Retro 8-bit pixel art of a cozy cottage in a snowy forest, soft lighting",
	"Pixel art of a sleepy cat on a windowsill, kawaii style, pastel colors",
	"Fantasy pixel art of a glowing crystal cave, vibrant purple and teal",
	"Pixel art of a beach at sunset with palm trees, bright tropical colors",
	"Cute pixel art of a dragon hatchling peeking out of its egg, whimsical",
	"Pixel art of a bustling night market with paper lanterns, detailed pixel work",
	"Retro game style pixel art of a rocket launching into space, colorful",
	"Pixel art of a mushroom village in a magical forest, spring theme",
	"Pixel art of a wizard's library with floating books, mystical glow",
	"Cute pixel art of a fox in a scarf walking through autumn leaves",
	"Pixel art of a lighthouse on a stormy coast, dramatic waves",
	"Pixel art of a ramen shop on a rainy evening, neon reflections",
	"Retro pixel art of a 1950s diner with a jukebox, classic style",
	"Pixel art of an underwater coral reef with tropical fish, vivid colors",
	"Fantasy pixel art of a floating island with waterfalls, sky theme",
	"Pixel art of an adventurer's backpack and map, RPG item style",
	"Pixel art of a train crossing a mountain bridge, winter landscape",
	"Cute pixel art of a bakery counter full of pastries, warm lighting",
	"Pixel art of a robot tending a rooftop garden, cheerful colors",
	"Pixel art of a ballerina mid-twirl on a stage, graceful movement",
	"Fantasy pixel art of a fairy ring in a moonlit glade, sparkles",
	"Pixel art of a treasure chest overflowing with gold, dungeon setting",
	"Retro pixel art of a disco dance floor, colorful lights",
	"Pixel art of a runner on a city track at dawn, dynamic movement",
}

// Len reports the catalog size.
func Len() int { return len(catalog) }

// Random returns a uniformly chosen prompt.
func Random() string {
	return catalog[rand.IntN(len(catalog))]
}

// At returns the prompt at i modulo the catalog length, so successive
// indexes cycle deterministically through the catalog.
func At(i int) string {
	n := len(catalog)
	return catalog[((i%n)+n)%n]
}

// Contains reports whether p is one of the catalog prompts.
func Contains(p string) bool {
	for _, c := range catalog {
		if c == p {
			return true
		}
	}
	return false
}
