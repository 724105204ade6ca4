package candidate

var (
	sanFrancisco = Headquarters{City: "旧金山", Country: "USA", Longitude: -122.4194, Latitude: 37.7749}
	beijing      = Headquarters{City: "北京", Country: "China", Longitude: 116.4074, Latitude: 39.9042}
)

var defaultProfiles = []Profile{
	{Name: "OpenAI", Model: "GPT-4o", FoundedYear: 2015, FoundedMonth: 12, FoundedDay: 11,
		Founders: []string{"Sam Altman", "Elon Musk", "Greg Brockman"}, Headquarters: sanFrancisco},
	{Name: "Anthropic", Model: "Claude 3.5", FoundedYear: 2021, FoundedMonth: 1, FoundedDay: 1,
		Founders: []string{"Dario Amodei", "Daniela Amodei"}, Headquarters: sanFrancisco},
	{Name: "Google", Model: "Gemini 2.5", FoundedYear: 1998, FoundedMonth: 9, FoundedDay: 4,
		Founders: []string{"Larry Page", "Sergey Brin"},
		Headquarters: Headquarters{City: "山景城", Country: "USA", Longitude: -122.0840, Latitude: 37.3861}},
	{Name: "Meta", Model: "Llama 3", FoundedYear: 2004, FoundedMonth: 2, FoundedDay: 4,
		Founders: []string{"Mark Zuckerberg"},
		Headquarters: Headquarters{City: "门洛帕克", Country: "USA", Longitude: -122.1817, Latitude: 37.4529}},
	{Name: "Mistral AI", Model: "Mixtral 8x22B", FoundedYear: 2023, FoundedMonth: 4, FoundedDay: 1,
		Founders: []string{"Arthur Mensch"},
		Headquarters: Headquarters{City: "巴黎", Country: "France", Longitude: 2.3522, Latitude: 48.8566}},
	{Name: "xAI", Model: "Grok-2", FoundedYear: 2023, FoundedMonth: 7, FoundedDay: 12,
		Founders: []string{"Elon Musk"}, Headquarters: sanFrancisco},
	{Name: "月之暗面", Model: "Kimi", FoundedYear: 2023, FoundedMonth: 3, FoundedDay: 1,
		Founders: []string{"杨植麟"}, Headquarters: beijing},
	{Name: "智谱AI", Model: "GLM-4", FoundedYear: 2019, FoundedMonth: 6, FoundedDay: 1,
		Founders: []string{"唐杰"}, Headquarters: beijing},
	{Name: "深度求索", Model: "DeepSeek-V2", FoundedYear: 2023, FoundedMonth: 3, FoundedDay: 1,
		Founders: []string{"梁文锋", "张鹏"}, Headquarters: beijing},
	{Name: "阿里巴巴", Model: "通义千问 2.5", FoundedYear: 1999, FoundedMonth: 4, FoundedDay: 4,
		Founders: []string{"马云"},
		Headquarters: Headquarters{City: "杭州", Country: "China", Longitude: 120.1551, Latitude: 30.2741}},
	{Name: "字节跳动", Model: "豆包", FoundedYear: 2012, FoundedMonth: 3, FoundedDay: 1,
		Founders: []string{"张一鸣"}, Headquarters: beijing},
	{Name: "Cohere", Model: "Command R+", FoundedYear: 2019, FoundedMonth: 1, FoundedDay: 1,
		Founders: []string{"Aidan Gomez", "Ivan Zhang", "Nick Frosst"},
		Headquarters: Headquarters{City: "多伦多", Country: "Canada", Longitude: -79.3832, Latitude: 43.6532}},
}

var defaultFounders = []Founder{
	{Name: "Sam Altman", LifePath: 5, Element: "火", Zodiac: "Taurus", Charisma: 0.95, Innovation: 0.90},
	{Name: "Elon Musk", LifePath: 8, Element: "金", Zodiac: "Cancer", Charisma: 1.0, Innovation: 1.0},
	{Name: "Greg Brockman", LifePath: 1, Element: "土", Zodiac: "Virgo", Charisma: 0.85, Innovation: 0.92},
	{Name: "Dario Amodei", LifePath: 7, Element: "水", Charisma: 0.85, Innovation: 0.95},
	{Name: "Daniela Amodei", LifePath: 9, Element: "木", Charisma: 0.80, Innovation: 0.88},
	{Name: "Larry Page", LifePath: 4, Element: "土", Zodiac: "Aries", Charisma: 0.88, Innovation: 0.98},
	{Name: "Sergey Brin", LifePath: 3, Element: "木", Zodiac: "Leo", Charisma: 0.86, Innovation: 0.96},
	{Name: "Mark Zuckerberg", LifePath: 1, Element: "火", Zodiac: "Taurus", Charisma: 0.90, Innovation: 0.92},
	{Name: "Arthur Mensch", LifePath: 6, Element: "水", Charisma: 0.75, Innovation: 0.85},
	{Name: "Aidan Gomez", LifePath: 11, Element: "气", Charisma: 0.82, Innovation: 0.91},
	{Name: "Ivan Zhang", LifePath: 3, Element: "木", Charisma: 0.78, Innovation: 0.89},
	{Name: "Nick Frosst", LifePath: 9, Element: "水", Charisma: 0.80, Innovation: 0.93},
	{Name: "梁文锋", LifePath: 2, Element: "金", Charisma: 0.70, Innovation: 0.88},
	{Name: "张鹏", LifePath: 8, Element: "木", Charisma: 0.78, Innovation: 0.82},
	{Name: "唐杰", LifePath: 5, Element: "火", Charisma: 0.80, Innovation: 0.90},
	{Name: "杨植麟", LifePath: 9, Element: "水", Charisma: 0.82, Innovation: 0.93},
	{Name: "马云", LifePath: 3, Element: "木", Zodiac: "Libra", Charisma: 1.0, Innovation: 0.85},
	{Name: "张一鸣", LifePath: 7, Element: "水", Zodiac: "Aries", Charisma: 0.88, Innovation: 0.94},
}

// DefaultProfiles returns a copy of the built-in candidate list.
func DefaultProfiles() []Profile {
	out := make([]Profile, len(defaultProfiles))
	for i, p := range defaultProfiles {
		p.Founders = append([]string(nil), p.Founders...)
		out[i] = p
	}
	return out
}

// DefaultFounderProfiles returns a copy of the built-in founder list.
func DefaultFounderProfiles() []Founder {
	return append([]Founder(nil), defaultFounders...)
}

// DefaultRegistry builds the registry from the built-in list.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultProfiles())
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultFounders builds the founder table from the built-in list.
func DefaultFounders() *FounderTable {
	t, err := NewFounderTable(DefaultFounderProfiles())
	if err != nil {
		panic(err)
	}
	return t
}
