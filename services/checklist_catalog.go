package services

// Checklist blueprints keyed by WIR code. GenerateForBox stamps these out as
// rows per box so each inspection grades its own copy. Codes without a
// dedicated blueprint fall back to the general one.
type checklistItemSpec struct {
	Description  string
	ReferenceDoc string
}

type checklistSectionSpec struct {
	Title string
	Items []checklistItemSpec
}

var generalChecklist = []checklistSectionSpec{
	{
		Title: "Documentation",
		Items: []checklistItemSpec{
			{Description: "Approved shop drawings available at workface", ReferenceDoc: "ITP-GEN-01"},
			{Description: "Previous stage inspection closed out", ReferenceDoc: "ITP-GEN-02"},
			{Description: "Material delivery notes match approved submittals", ReferenceDoc: "ITP-GEN-03"},
		},
	},
	{
		Title: "Workmanship",
		Items: []checklistItemSpec{
			{Description: "Work completed as per approved drawings", ReferenceDoc: "ITP-GEN-04"},
			{Description: "Dimensions and tolerances within specification", ReferenceDoc: "ITP-GEN-05"},
			{Description: "Surfaces clean and free of damage", ReferenceDoc: "ITP-GEN-06"},
		},
	},
}

var checklistCatalog = map[string][]checklistSectionSpec{
	"WIR-1": {
		{
			Title: "Structural Closure",
			Items: []checklistItemSpec{
				{Description: "Wall panels aligned and plumb", ReferenceDoc: "ITP-STR-01"},
				{Description: "Panel joints sealed as per method statement", ReferenceDoc: "ITP-STR-02"},
				{Description: "Lifting inserts inspected and capped", ReferenceDoc: "ITP-STR-03"},
			},
		},
		{
			Title: "Embedments",
			Items: []checklistItemSpec{
				{Description: "MEP sleeves and openings per drawing", ReferenceDoc: "ITP-STR-04"},
				{Description: "Cast-in conduits continuous and protected", ReferenceDoc: "ITP-STR-05"},
			},
		},
	},
	"WIR-2": {
		{
			Title: "MEP First Fix",
			Items: []checklistItemSpec{
				{Description: "Conduit routing matches approved layout", ReferenceDoc: "ITP-MEP-01"},
				{Description: "Drainage pipework gradient verified", ReferenceDoc: "ITP-MEP-02"},
				{Description: "Pressure test records attached", ReferenceDoc: "ITP-MEP-03"},
			},
		},
	},
	"WIR-3": {
		{
			Title: "Waterproofing",
			Items: []checklistItemSpec{
				{Description: "Substrate prepared and primed", ReferenceDoc: "ITP-WPF-01"},
				{Description: "Membrane laps and upstands per detail", ReferenceDoc: "ITP-WPF-02"},
				{Description: "Flood test completed and signed off", ReferenceDoc: "ITP-WPF-03"},
			},
		},
	},
	"WIR-4": {
		{
			Title: "Internal Finishes",
			Items: []checklistItemSpec{
				{Description: "Tiling lines and levels within tolerance", ReferenceDoc: "ITP-FIN-01"},
				{Description: "Paint system applied per specification", ReferenceDoc: "ITP-FIN-02"},
				{Description: "Joinery installed without damage", ReferenceDoc: "ITP-FIN-03"},
			},
		},
	},
	"WIR-5": {
		{
			Title: "MEP Final Fix",
			Items: []checklistItemSpec{
				{Description: "Fixtures and fittings installed and operational", ReferenceDoc: "ITP-MEP-04"},
				{Description: "Electrical continuity and polarity tested", ReferenceDoc: "ITP-MEP-05"},
			},
		},
	},
	"WIR-6": {
		{
			Title: "Pre-Dispatch",
			Items: []checklistItemSpec{
				{Description: "All previous inspections approved", ReferenceDoc: "ITP-DSP-01"},
				{Description: "Box cleaned and protection installed", ReferenceDoc: "ITP-DSP-02"},
				{Description: "Transport brackets fitted and torqued", ReferenceDoc: "ITP-DSP-03"},
			},
		},
	},
}

func checklistFor(wirCode string) []checklistSectionSpec {
	if sections, ok := checklistCatalog[wirCode]; ok {
		return sections
	}
	return generalChecklist
}
