package main

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

func newULID() string {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

type seedBook struct {
	title    string
	author   string
	category string
}

var catalog = []seedBook{
	// Psychology
	{"Thinking, Fast and Slow", "Daniel Kahneman", "Psychology"},
	{"Man's Search for Meaning", "Viktor E. Frankl", "Psychology"},
	{"The Power of Habit", "Charles Duhigg", "Psychology"},
	{"Quiet: The Power of Introverts in a World That Can't Stop Talking", "Susan Cain", "Psychology"},
	{"Daring Greatly", "Brené Brown", "Psychology"},
	{"Mindset: The New Psychology of Success", "Carol S. Dweck", "Psychology"},
	{"Influence: The Psychology of Persuasion", "Robert B. Cialdini", "Psychology"},
	{"Blink: The Power of Thinking Without Thinking", "Malcolm Gladwell", "Psychology"},
	{"Predictably Irrational", "Dan Ariely", "Psychology"},
	{"The Body Keeps the Score", "Bessel van der Kolk", "Psychology"},

	// Science Fiction
	{"Dune", "Frank Herbert", "Science Fiction"},
	{"Ender's Game", "Orson Scott Card", "Science Fiction"},
	{"The Hitchhiker's Guide to the Galaxy", "Douglas Adams", "Science Fiction"},
	{"Foundation", "Isaac Asimov", "Science Fiction"},
	{"Neuromancer", "William Gibson", "Science Fiction"},
	{"Snow Crash", "Neal Stephenson", "Science Fiction"},
	{"Hyperion", "Dan Simmons", "Science Fiction"},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction"},
	{"A Canticle for Leibowitz", "Walter M. Miller Jr.", "Science Fiction"},
	{"The Martian", "Andy Weir", "Science Fiction"},

	// History
	{"Sapiens: A Brief History of Humankind", "Yuval Noah Harari", "History"},
	{"Guns, Germs, and Steel", "Jared Diamond", "History"},
	{"The Wright Brothers", "David McCullough", "History"},
	{"1776", "David McCullough", "History"},
	{"The Diary of a Young Girl", "Anne Frank", "History"},
	{"A People's History of the United States", "Howard Zinn", "History"},
	{"The Rise and Fall of the Third Reich", "William L. Shirer", "History"},
	{"The Guns of August", "Barbara W. Tuchman", "History"},
	{"The Crusades: The Authoritative History of the War for the Holy Land", "Thomas Asbridge", "History"},
	{"The Six Wives of Henry VIII", "Alison Weir", "History"},

	// Romance
	{"Pride and Prejudice", "Jane Austen", "Romance"},
	{"Outlander", "Diana Gabaldon", "Romance"},
	{"The Notebook", "Nicholas Sparks", "Romance"},
	{"Me Before You", "Jojo Moyes", "Romance"},
	{"The Hating Game", "Sally Thorne", "Romance"},
	{"Eleanor Oliphant Is Completely Fine", "Gail Honeyman", "Romance"},
	{"The Rosie Project", "Graeme Simsion", "Romance"},
	{"Red, White & Royal Blue", "Casey McQuiston", "Romance"},
	{"The Kiss Quotient", "Helen Hoang", "Romance"},
	{"Vision in White", "Nora Roberts", "Romance"},

	// Technology
	{"The Innovators", "Walter Isaacson", "Technology"},
	{"Steve Jobs", "Walter Isaacson", "Technology"},
	{"Zero to One", "Peter Thiel", "Technology"},
	{"The Lean Startup", "Eric Ries", "Technology"},
	{"Hooked: How to Build Habit-Forming Products", "Nir Eyal", "Technology"},
	{"The Phoenix Project", "Gene Kim", "Technology"},
	{"Clean Code", "Robert C. Martin", "Technology"},
	{"The Pragmatic Programmer", "Andrew Hunt", "Technology"},
	{"Don't Make Me Think", "Steve Krug", "Technology"},
	{"The Design of Everyday Things", "Don Norman", "Technology"},

	// Children's
	{"The Very Hungry Caterpillar", "Eric Carle", "Children's"},
	{"Where the Wild Things Are", "Maurice Sendak", "Children's"},
	{"Goodnight Moon", "Margaret Wise Brown", "Children's"},
	{"The Cat in the Hat", "Dr. Seuss", "Children's"},
	{"Charlotte's Web", "E.B. White", "Children's"},
	{"Harry Potter and the Sorcerer's Stone", "J.K. Rowling", "Children's"},
	{"The Lion, the Witch and the Wardrobe", "C.S. Lewis", "Children's"},
	{"The Giving Tree", "Shel Silverstein", "Children's"},
	{"Matilda", "Roald Dahl", "Children's"},
	{"The Tale of Peter Rabbit", "Beatrix Potter", "Children's"},

	// Mystery
	{"The Girl with the Dragon Tattoo", "Stieg Larsson", "Mystery"},
	{"Gone Girl", "Gillian Flynn", "Mystery"},
	{"The Silent Patient", "Alex Michaelides", "Mystery"},
	{"And Then There Were None", "Agatha Christie", "Mystery"},
	{"The Da Vinci Code", "Dan Brown", "Mystery"},
	{"The Woman in Cabin 10", "Ruth Ware", "Mystery"},
	{"Big Little Lies", "Liane Moriarty", "Mystery"},
	{"In the Woods", "Tana French", "Mystery"},
	{"The Guest List", "Lucy Foley", "Mystery"},
	{"The Thursday Murder Club", "Richard Osman", "Mystery"},
}
