package core

// Word pools used by the string patterns of the field synthesizer.

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
	"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
	"Thomas", "Sarah", "Charles", "Karen", "Daniel", "Nancy", "Matthew", "Ashley",
	"Andrew", "Emily", "Kevin", "Michelle", "Brian", "Amanda", "Jose", "Maria",
	"Luis", "Carmen", "Juan", "Lucia", "Carlos", "Sofia", "Diego", "Valentina",
	"Andres", "Camila", "Javier", "Isabel", "Mateo", "Daniela", "Lukas", "Hannah",
	"Felix", "Lena", "Jonas", "Mia", "Noah", "Olivia", "Liam", "Emma",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
	"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
	"Torres", "Flores", "Rivera", "Gomez", "Diaz", "Morales", "Ortiz", "Castillo",
	"Vargas", "Mendoza", "Guerrero", "Muller", "Schmidt", "Schneider", "Fischer",
	"Weber", "Wagner", "Becker", "Tremblay", "Roy", "Gagnon", "Patel", "Nguyen",
}

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit",
	"sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore",
	"magna", "aliqua", "enim", "ad", "minim", "veniam", "quis", "nostrud",
	"exercitation", "ullamco", "laboris", "nisi", "aliquip", "ex", "ea", "commodo",
	"product", "service", "platform", "digital", "cloud", "data", "system",
	"network", "security", "performance", "customer", "market", "growth",
	"order", "invoice", "payment", "delivery", "account", "request", "update",
}

var emailDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "protonmail.com",
	"icloud.com", "example.com", "company.org", "corp.net", "business.io",
}

const (
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)
