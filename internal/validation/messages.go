package validation

import "fmt"

// messageFunc renders the technical (operator audit) and counterparty
// (submitting seller) messages for one failure kind. Technical messages carry
// full diagnostic context and are never shown to the counterparty;
// counterparty messages are terse, blame-neutral Portuguese and never leak
// internal identifiers.
type messageFunc func(ctx MessageContext) (technical, counterparty string)

var messageRegistry = map[FailureKind]messageFunc{
	KindOrderTypeUnknown: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("campaign %q has unrecognized order-number column type %q", ctx.CampaignTitle, ctx.Field),
			"Não foi possível processar esta venda. Tente novamente mais tarde."
	},
	KindColumnUnmapped: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("logical field %q has no column mapped in the batch request (order %s, campaign %q)", ctx.Field, ctx.OrderNumber, ctx.CampaignTitle),
			"Não foi possível processar esta venda. Tente novamente mais tarde."
	},
	KindIDNotRegistered: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("seller's optic has no registered CNPJ (order %s, campaign %q)", ctx.OrderNumber, ctx.CampaignTitle),
			"Sua ótica ainda não possui CNPJ cadastrado. Procure a administração da campanha."
	},
	KindIDNotFoundInRow: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("column %q is empty for order %s (campaign %q)", ctx.Column, ctx.OrderNumber, ctx.CampaignTitle),
			"A planilha enviada não informa o CNPJ da loja para este pedido."
	},
	KindIDInvalidFormat: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("value %q in column %q is not a 14-digit CNPJ (order %s)", ctx.RowValue, ctx.Column, ctx.OrderNumber),
			"O CNPJ informado na planilha para este pedido não é válido."
	},
	KindIDMismatch: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("CNPJ %s in the spreadsheet matches neither the optic (%s) nor its matriz (%s) for order %s", ctx.RowValue, ctx.SellerTaxID, orDash(ctx.ParentTaxID), ctx.OrderNumber),
			"O CNPJ da venda não corresponde à sua ótica."
	},
	KindDateColumnUnmapped: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("logical field %q has no column mapped in the batch request (order %s, campaign %q)", ctx.Field, ctx.OrderNumber, ctx.CampaignTitle),
			"Não foi possível conferir a data desta venda. Tente novamente mais tarde."
	},
	KindDateEmpty: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("sale-date column %q is empty for order %s", ctx.Column, ctx.OrderNumber),
			"A planilha não informa a data desta venda."
	},
	KindDateUnparseable: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("sale-date value %q in column %q could not be parsed (order %s)", ctx.RowValue, ctx.Column, ctx.OrderNumber),
			"A data informada para esta venda não pôde ser lida."
	},
	KindDateOutOfRange: func(ctx MessageContext) (string, string) {
		side := "after the campaign end"
		counterparty := "A venda ocorreu após o encerramento da campanha."
		if ctx.BeforeStart {
			side = "before the campaign start"
			counterparty = "A venda ocorreu antes do início da campanha."
		}
		return fmt.Sprintf("sale date %s is %s (campaign %q window %s to %s, order %s)", ctx.SaleDate, side, ctx.CampaignTitle, ctx.WindowStart, ctx.WindowEnd, ctx.OrderNumber),
			counterparty
	},
	KindQtyPairMismatch: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("requirement expects a pair (2 rows) but %d row(s) matched order %s", ctx.FoundRows, ctx.OrderNumber),
			"Esta cartela exige um par de produtos e a venda informada não corresponde a um par."
	},
	KindQtyUnitMismatch: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("requirement expects a single unit (1 row) but %d row(s) matched order %s", ctx.FoundRows, ctx.OrderNumber),
			"Esta cartela exige um único produto por venda."
	},
	KindRuleColumnUnmapped: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("condition field %q has no column mapped in the batch request (order %s, campaign %q)", ctx.Field, ctx.OrderNumber, ctx.CampaignTitle),
			"Não foi possível conferir os requisitos desta venda. Tente novamente mais tarde."
	},
	KindRuleUnknownOperator: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("condition on field %q uses unknown operator %q (order %s)", ctx.Field, ctx.Operator, ctx.OrderNumber),
			"Não foi possível conferir os requisitos desta venda. Tente novamente mais tarde."
	},
	KindRuleNotSatisfied: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("condition %s %s %q not satisfied by value %q in column %q (order %s)", ctx.Field, ctx.Operator, ctx.Expected, ctx.Actual, ctx.Column, ctx.OrderNumber),
			"A venda informada não atende aos requisitos da campanha."
	},
	KindProductNotInCatalog: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("product code %q from column %q is not in the catalog of campaign %q (order %s)", ctx.ProductCode, ctx.Column, ctx.CampaignTitle, ctx.OrderNumber),
			"Um dos produtos informados não participa desta campanha."
	},
	KindPayoutCodeUnregistered: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("payout resolution found no catalog entry for product code %q (campaign %q, order %s); campaign catalog needs review", ctx.ProductCode, ctx.CampaignTitle, ctx.OrderNumber),
			"O produto informado está em análise pela administração da campanha."
	},
	KindCrossSellerConflict: func(ctx MessageContext) (string, string) {
		return fmt.Sprintf("order %s in campaign %q is already validated for seller %q", ctx.OrderNumber, ctx.CampaignTitle, ctx.ConflictingSeller),
			"Este pedido já foi validado para outro vendedor e está em análise."
	},
}

// Messages renders the message pair for a failure kind. Unknown kinds fall
// back to a generic pair so a missing registry entry never panics a run.
func Messages(kind FailureKind, ctx MessageContext) (string, string) {
	fn, ok := messageRegistry[kind]
	if !ok {
		return fmt.Sprintf("unhandled failure kind %q (order %s, campaign %q)", kind, ctx.OrderNumber, ctx.CampaignTitle),
			"Não foi possível validar esta venda."
	}
	return fn(ctx)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
