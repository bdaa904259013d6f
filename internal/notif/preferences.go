package notif

import (
	"nirala/internal/common"
	"nirala/internal/dbmysql"
)

// Decision is the outcome of gating one notification through a preference
// matrix.
type Decision struct {
	InApp     bool                  `json:"inApp"`
	Email     bool                  `json:"email"`
	Frequency common.EmailFrequency `json:"frequency"`
}

// Decide applies the master switch then the subcategory row.
//
// A missing master row fails open for in-app and keeps email off. A master
// row with in-app off suppresses the whole category. Email needs the master
// row to allow it and the subcategory row not to forbid it.
func Decide(prefs []*dbmysql.NotificationPreference, cl common.Classification) Decision {
	var master, sub *dbmysql.NotificationPreference
	for _, p := range prefs {
		if p.Category != string(cl.Category) {
			continue
		}
		switch p.Subcategory {
		case common.SubcategoryAll:
			master = p
		case cl.Subcategory:
			sub = p
		}
	}

	d := Decision{InApp: true, Frequency: common.FrequencyInstant}
	if master == nil {
		if sub != nil {
			d.InApp = sub.InAppEnabled
		}
		return d
	}

	switch {
	case !master.InAppEnabled:
		d.InApp = false
	case sub != nil:
		d.InApp = sub.InAppEnabled
	}

	d.Email = master.EmailEnabled && (sub == nil || sub.EmailEnabled)
	d.Frequency = frequencyOf(master)
	if sub != nil {
		d.Frequency = frequencyOf(sub)
	}
	return d
}

func frequencyOf(p *dbmysql.NotificationPreference) common.EmailFrequency {
	f := common.EmailFrequency(p.EmailFrequency)
	if !f.Valid() {
		return common.FrequencyInstant
	}
	return f
}
