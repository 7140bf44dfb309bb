package department

import "github.com/joseph-ayodele/records-ingest/constants"

// DefaultRules is the canonical table. Full names are checked first, then
// exact codes, then prefixes; within a kind the first listed rule wins.
var DefaultRules = []Rule{
	{Kind: KindKeyword, Keywords: []string{"COMPUTER SCIENCE"}, Department: constants.DeptCCS},
	{Kind: KindKeyword, Keywords: []string{"INFORMATION TECHNOLOGY"}, Department: constants.DeptCCS},
	{Kind: KindKeyword, Keywords: []string{"COMPUTER STUDIES"}, Department: constants.DeptCCS},
	{Kind: KindKeyword, Keywords: []string{"HOSPITALITY MANAGEMENT", "HOSPITALITY"}, Department: constants.DeptCHTM},
	{Kind: KindKeyword, Keywords: []string{"TOURISM MANAGEMENT", "TOURISM"}, Department: constants.DeptCHTM},
	{Kind: KindKeyword, Keywords: []string{"BUSINESS ADMINISTRATION", "BUSINESS"}, Department: constants.DeptCBA},
	{Kind: KindKeyword, Keywords: []string{"OFFICE ADMINISTRATION"}, Department: constants.DeptCBA},
	{Kind: KindKeyword, Keywords: []string{"EDUCATION"}, Department: constants.DeptCTE},
	{Kind: KindKeyword, Keywords: []string{"ENGINEERING"}, Department: constants.DeptCOE},
	{Kind: KindKeyword, Keywords: []string{"NURSING"}, Department: constants.DeptCON},
	{Kind: KindKeyword, Keywords: []string{"ARTS", "SCIENCE"}, MatchAll: true, Department: constants.DeptCAS},

	{Kind: KindCode, Codes: []string{"BSCS", "BSIT"}, Department: constants.DeptCCS},
	{Kind: KindCode, Codes: []string{"BSHM", "BSTM"}, Department: constants.DeptCHTM},
	{Kind: KindCode, Codes: []string{"BSBA", "BSOA"}, Department: constants.DeptCBA},
	{Kind: KindCode, Codes: []string{"BECED", "BTLE"}, Department: constants.DeptCTE},
	{Kind: KindCode, Codes: []string{"BSEE", "BSCE", "BSME"}, Department: constants.DeptCOE},
	{Kind: KindCode, Codes: []string{"BSN"}, Department: constants.DeptCON},
	{Kind: KindCode, Codes: []string{"AB", "BS"}, Department: constants.DeptCAS},

	{Kind: KindPrefix, Prefixes: []string{"BS HM", "BSHM"}, Department: constants.DeptCHTM},
	{Kind: KindPrefix, Prefixes: []string{"BS TM", "BSTM"}, Department: constants.DeptCHTM},
	{Kind: KindPrefix, Prefixes: []string{"BS IT", "BSIT"}, Department: constants.DeptCCS},
	{Kind: KindPrefix, Prefixes: []string{"BS CS", "BSCS"}, Department: constants.DeptCCS},
	{Kind: KindPrefix, Prefixes: []string{"BS BA", "BSBA"}, Department: constants.DeptCBA},
	{Kind: KindPrefix, Prefixes: []string{"BS OA", "BSOA"}, Department: constants.DeptCBA},
}
