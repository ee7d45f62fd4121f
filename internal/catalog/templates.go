package catalog

import "github.com/nurpe/contratpro/internal/model"

// Template is a prefilled contract draft the user can start from.
type Template struct {
	ID          int                 `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Draft       model.ContractDraft `json:"template_data"`
}

func single() model.PaymentPlan {
	return model.PaymentPlan{InstallmentCount: 1, FirstPaymentPercent: 100}
}

func defaultTemplates() []Template {
	return []Template{
		{
			ID:          1,
			Title:       "Contrat de prestation de service",
			Description: "Idéal pour les freelances et consultants proposant des services.",
			Draft: model.ContractDraft{
				Type:               model.ContractTypeService,
				Subtype:            "consulting",
				ProjectDescription: "Prestation de conseil en stratégie d'entreprise incluant une analyse de marché, recommandations stratégiques et plan d'action personnalisé.",
				Details:            "Le prestataire s'engage à fournir un rapport détaillé, à effectuer un minimum de 3 réunions de suivi, et à être disponible par email pour répondre aux questions pendant toute la durée du contrat.",
				Penalties:          "En cas de retard de livraison supérieur à 15 jours, une pénalité de 5% du montant total sera appliquée par semaine de retard, dans la limite de 20% du montant total.",
				Amount:             "5000",
				Currency:           "fcf",
				Plan: model.PaymentPlan{
					InstallmentCount:    2,
					FirstPaymentPercent: 50,
					Offsets:             []model.Offset{{Magnitude: 30, Unit: model.DateUnitDays}},
				},
			},
		},
		{
			ID:          2,
			Title:       "Contrat de travail CDI",
			Description: "Pour établir une relation d'emploi à durée indéterminée conforme au droit.",
			Draft: model.ContractDraft{
				Type:               model.ContractTypeWork,
				Subtype:            "cdi",
				ProjectDescription: "Contrat à durée indéterminée pour le poste de [Titre du poste] au sein de l'entreprise, avec les responsabilités suivantes : [Listez les principales responsabilités].",
				Details:            "Horaires de travail : 40 heures par semaine, du lundi au vendredi. Avantages : assurance maladie, 25 jours de congés payés par an, plan de retraite d'entreprise.",
				Penalties:          "En cas de non-respect des obligations professionnelles, l'employeur peut appliquer les sanctions disciplinaires prévues par le règlement intérieur, pouvant aller jusqu'au licenciement pour faute grave.",
				Amount:             "500000",
				Currency:           "fcf",
				Plan:               single(),
			},
		},
		{
			ID:          3,
			Title:       "Contrat de bail commercial",
			Description: "Encadre la location d'un local à usage professionnel ou commercial.",
			Draft: model.ContractDraft{
				Type:      model.ContractTypeRental,
				Subtype:   "commercial",
				Details:   "Le locataire est autorisé à effectuer des aménagements à condition d'obtenir l'accord écrit préalable du propriétaire. Le local est loué en l'état. Un état des lieux sera effectué à l'entrée et à la sortie.",
				Penalties: "Tout retard de paiement entraînera une pénalité de 10% du montant dû. En cas de dégradation du local, les frais de remise en état seront à la charge du locataire.",
				Amount:    "150000",
				Currency:  "fcf",
				Plan:      single(),
			},
		},
		{
			ID:          4,
			Title:       "Contrat de vente",
			Description: "Sécurise les transactions entre vendeurs et acheteurs.",
			Draft: model.ContractDraft{
				Type:      model.ContractTypeSale,
				Subtype:   "goods",
				Details:   "Le vendeur garantit être le propriétaire légitime du bien vendu et qu'il est libre de tout gage ou hypothèque. La livraison sera effectuée à l'adresse de l'acheteur dans un délai de 15 jours après paiement complet.",
				Penalties: "En cas d'annulation par l'acheteur après signature, un montant forfaitaire de 15% sera retenu. En cas de non-livraison dans les délais convenus, l'acheteur pourra annuler la vente et être intégralement remboursé.",
				Amount:    "100000",
				Currency:  "fcf",
				Plan: model.PaymentPlan{
					InstallmentCount:    2,
					FirstPaymentPercent: 50,
					Offsets:             []model.Offset{{Magnitude: 15, Unit: model.DateUnitDays}},
				},
			},
		},
		{
			ID:          5,
			Title:       "Accord de confidentialité",
			Description: "Protège les informations sensibles échangées entre parties.",
			Draft: model.ContractDraft{
				Type:      model.ContractTypeNDA,
				Subtype:   "bilateral",
				Details:   "Les informations confidentielles comprennent: documents techniques, données clients, stratégies commerciales, codes sources, et toute autre information marquée comme confidentielle. La durée de confidentialité s'étend à 5 ans après la fin de la collaboration.",
				Penalties: "Toute violation de cet accord entraînera le paiement de dommages et intérêts d'un montant minimum de 5 000 000 FCFA, sans préjudice du droit à réclamer l'indemnisation du préjudice réellement subi.",
				Amount:    "0",
				Currency:  "fcf",
				Plan:      single(),
			},
		},
		{
			ID:          6,
			Title:       "Contrat de partenariat",
			Description: "Encadre la collaboration entre deux ou plusieurs parties pour un projet commun.",
			Draft: model.ContractDraft{
				Type:      model.ContractTypePartnership,
				Subtype:   "strategic",
				Details:   "Les deux parties s'engagent à contribuer aux ressources suivantes: [partie 1] apportera [ressources], [partie 2] apportera [ressources]. La répartition des bénéfices sera effectuée à hauteur de [pourcentage] pour [partie 1] et [pourcentage] pour [partie 2].",
				Penalties: "En cas de non-respect des engagements, la partie défaillante devra verser une indemnité compensatoire de 20% de la valeur estimée du projet. La résiliation anticipée sans motif valable entraînera le versement d'une indemnité forfaitaire de 3 000 000 FCFA.",
				Amount:    "0",
				Currency:  "fcf",
				Plan:      single(),
			},
		},
	}
}

// NewDraft returns a copy of the template draft. Applying a template
// replaces the whole draft, parties and dates included.
func (t Template) NewDraft() model.ContractDraft {
	draft := t.Draft
	draft.Plan.Offsets = append([]model.Offset(nil), t.Draft.Plan.Offsets...)
	return draft
}
