package knowledge

// instructions maps each disposal category to its canonical German
// disposal instructions. This table is the authoritative knowledge base
// expanded by Build.
var instructions = map[string]string{
	"plastic":     "Plastikflaschen, Verpackungen, Folien → Gelber Sack/Gelbe Tonne. Bitte reinigen.",
	"paper":       "Zeitungen, Kartons, Bücher → Blaue Tonne. Sauber und trocken halten.",
	"glass":       "Glasflaschen, Konservengläser → Glascontainer (nach Farben sortieren). Deckel entfernen.",
	"organic":     "Obstreste, Gemüseabfälle, Kaffeesatz → Biotonne. Keine Plastiktüten verwenden.",
	"hazardous":   "Batterien, Farben, Chemikalien → Sondermüll/Wertstoffhof. Nicht in Hausmüll!",
	"residual":    "Windeln, Staubsaugerbeutel, Asche → Restmülltonne (Schwarze Tonne).",
	"electronics": "Handys, Kabel, Kleingeräte → Elektroschrott/Wertstoffhof.",
	"textiles":    "Kleidung, Schuhe, Stoffe → Altkleidercontainer (sauber und trocken).",
}

// examples maps each category to representative item labels. One knowledge
// item is generated per (category, example) pair.
var examples = map[string][]string{
	"plastic":     {"Plastikflasche", "Joghurtbecher", "Shampooflasche", "Plastiktüte", "Alufolie", "Kunststoffdeckel", "Chipstüte", "PET-Flasche", "Plastikbesteck", "Zahnpasta-Tube"},
	"paper":       {"Zeitung", "Karton", "Bücher", "Briefpapier", "Papierverpackung", "Zeitschrift", "Kartonverpackung", "Schachtel", "Pappe", "Papierhandtuch"},
	"glass":       {"Weinflasche", "Marmeladenglas", "Parfümflasche", "Saftflasche", "Glasdeckel", "Einmachglas", "Glasbehälter", "Fläschchen", "Konservenglas", "Sektflasche"},
	"organic":     {"Bananenschale", "Kaffeesatz", "Eierschalen", "Obstreste", "Gemüsereste", "Teebeutel", "Kochabfälle", "Obstkerne", "Kaffeesatzbeutel", "Blätter"},
	"hazardous":   {"Batterie", "Farbeimer", "Medikamente", "Chemikalien", "Spraydose", "Reinigungsmittel", "Lösemittel", "Elektronikbatterie", "Quecksilberthermometer", "Leuchtstoffröhre"},
	"residual":    {"Windel", "Staubsaugerbeutel", "Zigarettenasche", "Asche", "Taschentuch", "Kaugummi", "Kerzenreste", "Staub", "Lappen", "Porzellantasse"},
	"electronics": {"Handy", "Ladekabel", "Taschenlampe", "Fernbedienung", "Kopfhörer", "Kabel", "Stecker", "Maus", "Laptop", "Elektronikgerät"},
	"textiles":    {"T-Shirt", "Jeans", "Schuhe", "Pullover", "Jacke", "Socke", "Handtuch", "Stoffreste", "Kleid", "Hose"},
}

// synonyms maps example labels to known alternative names. Labels without
// an entry fall back to a fixed "no known synonyms" clause in Enrich.
var synonyms = map[string][]string{
	"Obstreste":         {"Obstabfälle", "Fruchtreste", "Apfelschalen", "Bananenschalen", "Bio-Küchenabfälle"},
	"Gemüsereste":       {"Gemüseabfälle", "Küchenabfälle", "Schalenreste"},
	"Kaffeesatz":        {"Kaffeereste", "gemahlener Kaffee"},
	"Teebeutel":         {"Teesäckchen", "Teereste", "Teefilter"},
	"Bananenschale":     {"Bananenreste", "Obstschale"},
	"Staubsaugerbeutel": {"Filterbeutel", "Staubbeutel"},
	"Lappen":            {"Putztuch", "Reinigungslappen", "Stofftuch"},
	"Hose":              {"Jeans", "Beinkleidung", "Textil"},
	"Zeitung":           {"Tageszeitung", "Zeitungspapier"},
	"Plastikflasche":    {"PET-Flasche", "Kunststoffflasche"},
	"Batterie":          {"Akku", "Knopfzelle"},
	"Handy":             {"Smartphone", "Mobiltelefon"},
}

// related maps each category to a short list of related example labels that
// strengthen the semantic cluster of the generated embedding text.
var related = map[string][]string{
	"plastic":     {"Plastikflasche", "Verpackungen", "Folien"},
	"paper":       {"Papier", "Zeitung", "Pappe", "Kartons"},
	"glass":       {"Glasflasche", "Einmachglas", "Konservenglas"},
	"organic":     {"Obstreste", "Gemüsereste", "Kaffeesatz", "Teebeutel", "Eierschalen"},
	"hazardous":   {"Batterien", "Chemikalien", "Farbreste"},
	"residual":    {"Restmüll", "Staubsaugerbeutel", "Keramikreste"},
	"electronics": {"Elektrogeräte", "Kabel", "Akkus"},
	"textiles":    {"Kleidung", "Stoffreste", "Hose", "Lappen"},
}

// reasoning maps each category to a German justification clause explaining
// why an item belongs to it. Categories without an entry use a generic
// fallback in Enrich.
var reasoning = map[string]string{
	"organic":     "weil er biologisch abbaubar, kompostierbar und typischer Küchenabfall ist",
	"paper":       "weil es sich um einen aus Zellstoff bestehenden Wertstoff handelt",
	"plastic":     "weil es ein synthetisches Polymermaterial ist",
	"glass":       "weil es aus wiederverwertbarem Glas besteht",
	"textiles":    "weil es aus Stoff oder Fasern besteht",
	"hazardous":   "weil es Schadstoffe enthält, die gesondert entsorgt werden müssen",
	"electronics": "weil es elektronische Bauteile und wertvolle Rohstoffe enthält",
	"residual":    "weil er nicht recycelbar und nicht verwertbar ist",
}

// impacts maps categories to a short environmental impact note surfaced in
// recommendations. Unknown categories use impactFallback.
var impacts = map[string]string{
	"plastic":   "Recycling spart Erdöl und reduziert Meeresverschmutzung",
	"paper":     "Recycling schützt Wälder und spart Wasser",
	"glass":     "Glasrecycling spart Energie und ist unendlich möglich",
	"organic":   "Kompostierung erzeugt nährstoffreiche Erde",
	"hazardous": "Sichere Entsorgung schützt Grundwasser",
	"residual":  "Verbrennung mit Energiegewinnung möglich",
}

// impactFallback is the environmental impact note for categories without a
// dedicated entry in impacts.
const impactFallback = "Positive Umweltwirkung durch korrekte Entsorgung"

// noSynonyms is the clause used when an example label has no synonym entry.
const noSynonyms = "Keine bekannten Synonyme"

// genericReasoning is the justification clause for categories without a
// dedicated entry in reasoning.
const genericReasoning = "weil es typisch für diese Kategorie ist"
