package odata

// Entity models for the oda.ft.dk API. Field names follow the wire format,
// which uses lowercased Danish property names.

// Sag is a parliamentary case.
type Sag struct {
	ID                int    `json:"id"`
	Titel             string `json:"titel"`
	Titelkort         string `json:"titelkort"`
	Nummer            string `json:"nummer"`
	Resume            string `json:"resume"`
	Afgørelse         string `json:"afgørelse"`
	Typeid            int    `json:"typeid"`
	Statusid          int    `json:"statusid"`
	Periodeid         int    `json:"periodeid"`
	Offentlighedskode string `json:"offentlighedskode"`
	Opdateringsdato   string `json:"opdateringsdato"`
}

// Aktør is an actor: a member, ministry, committee or similar.
type Aktør struct {
	ID              int    `json:"id"`
	Navn            string `json:"navn"`
	Fornavn         string `json:"fornavn"`
	Efternavn       string `json:"efternavn"`
	Biografi        string `json:"biografi"`
	Gruppenavnkort  string `json:"gruppenavnkort"`
	Typeid          int    `json:"typeid"`
	Periodeid       int    `json:"periodeid"`
	Opdateringsdato string `json:"opdateringsdato"`
}

// Afstemning is a voting session.
type Afstemning struct {
	ID              int    `json:"id"`
	Nummer          int    `json:"nummer"`
	Konklusion      string `json:"konklusion"`
	Vedtaget        bool   `json:"vedtaget"`
	Kommentar       string `json:"kommentar"`
	Mødeid          int    `json:"mødeid"`
	Typeid          int    `json:"typeid"`
	Sagstrinid      int    `json:"sagstrinid"`
	Opdateringsdato string `json:"opdateringsdato"`
}

// Stemme is one member's vote in a voting session.
// Typeid: 1 for, 2 imod, 3 fravær, 4 hverken for eller imod.
type Stemme struct {
	ID              int    `json:"id"`
	Typeid          int    `json:"typeid"`
	Afstemningid    int    `json:"afstemningid"`
	Aktørid         int    `json:"aktørid"`
	Opdateringsdato string `json:"opdateringsdato"`
}

// EntitySets lists the entity sets the documentation covers, in the order
// the reference section presents them.
var EntitySets = []string{
	"Sag",
	"Sagstrin",
	"SagAktør",
	"Aktør",
	"AktørAktør",
	"Afstemning",
	"Stemme",
	"Dokument",
	"Fil",
	"Omtryk",
	"Møde",
	"Dagsordenspunkt",
	"Periode",
	"Emneord",
	"EmneordSag",
	"EmneordDokument",
}
