// Package formdex embeds the formdex intake core in a Go program, talking to
// Valkey or Redis directly instead of going through the HTTP API.
//
// A tenant first registers its form schema; submissions of each entity kind
// are then validated against it, indexed, and checked for duplicates:
//
//	client, _ := formdex.New(ctx, formdex.WithAddr("localhost:6379", ""))
//	defer client.Close()
//
//	_, _ = client.Schemas().Put(ctx, "acme", []formdex.Section{{
//	    Name: "personalDetails",
//	    Fields: []formdex.Field{
//	        {Name: "Full Name", Type: formdex.FieldText, Required: true},
//	        {Name: "Email", Type: formdex.FieldEmail, Required: true},
//	        {Name: "Phone", Type: formdex.FieldText, Required: true},
//	    },
//	}})
//
//	leads := client.Records("acme", formdex.Lead)
//	rec, _, _ := leads.Create(ctx, formdex.Submission{Sections: []formdex.SubmissionSection{{
//	    Name:   "personalDetails",
//	    Fields: map[string]any{"Full Name": "Asha Rao", "Email": "asha@x.com", "Phone": "9876543210"},
//	}}})
//	page, _ := leads.Search(ctx, "city:pune", 0, 20)
package formdex
