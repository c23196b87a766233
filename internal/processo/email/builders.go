package email

import (
	"github.com/apoio-migrante/gestor-processos/internal/processo/processid"
)

const escolaridadeSecundario = "ENSINO SECUNDÁRIO"

func residenciaSubject(v values) string {
	return withName(subjectPrefix+" - "+v.schema.Titulo, v.get("requerente.nomeCompleto"))
}

func residenciaDocument(v values) Document {
	identificacao := Section{Heading: "Identificação do requerente", Rows: []Row{
		{Label: "Nome completo", Value: Upper(v.get("requerente.nomeCompleto"))},
		{Label: "Data de nascimento", Value: v.get("requerente.dataNascimento")},
		{Label: "Nacionalidade", Value: Upper(v.get("requerente.nacionalidade"))},
		{Label: "Tipo de documento", Value: v.get("requerente.tipoDocumento")},
		{Label: "N.º do documento", Value: v.documentNumber("requerente")},
		{Label: "Validade do documento", Value: v.get("requerente.validadeDocumento")},
		{Label: "NIF", Value: v.get("requerente.nif")},
	}}
	if v.declared("requerente.niss") {
		identificacao.Rows = append(identificacao.Rows, Row{Label: "NISS", Value: v.get("requerente.niss")})
	}

	contactos := Section{Heading: "Contactos", Rows: []Row{
		{Label: "Email", Value: v.get("requerente.email")},
		{Label: "Telefone", Value: v.get("requerente.telefone")},
		{Label: "Morada", Value: v.get("requerente.morada")},
	}}

	pedido := Section{Heading: "Pedido", Rows: []Row{
		{Label: "Tipo de pedido", Value: v.schema.Titulo},
	}}
	if v.declared("tituloResidencia.numero") {
		pedido.Rows = append(pedido.Rows,
			Row{Label: "Título de residência n.º", Value: v.get("tituloResidencia.numero")},
			Row{Label: "Validade do título", Value: v.get("tituloResidencia.validade")},
			Row{Label: "Tipo de título", Value: v.get("tituloResidencia.tipo")},
		)
	}
	pedido.Rows = append(pedido.Rows,
		Row{Label: "Local de atendimento preferido", Value: v.get("atendimento.local")},
		Row{Label: "Documentos entregues", Value: v.checkedDocuments()},
	)

	return Document{
		Title:    documentTitle,
		Subtitle: v.subtitle(),
		Sections: []Section{identificacao, contactos, pedido},
		Notes:    v.p.OutrosDetalhes,
	}
}

func reagrupamentoSubject(v values) string {
	return withName(subjectPrefix+" - "+v.schema.Titulo, v.get("pessoaQueRegrupa.nomeCompleto"))
}

func reagrupamentoDocument(v values) Document {
	quemReagrupa := Section{Heading: "Pessoa que reagrupa", Rows: []Row{
		{Label: "Nome completo", Value: Upper(v.get("pessoaQueRegrupa.nomeCompleto"))},
		{Label: "Data de nascimento", Value: v.get("pessoaQueRegrupa.dataNascimento")},
		{Label: "Nacionalidade", Value: Upper(v.get("pessoaQueRegrupa.nacionalidade"))},
		{Label: "Tipo de documento", Value: v.get("pessoaQueRegrupa.tipoDocumento")},
		{Label: "N.º do documento", Value: v.documentNumber("pessoaQueRegrupa")},
		{Label: "Validade do documento", Value: v.get("pessoaQueRegrupa.validadeDocumento")},
		{Label: "Parentesco", Value: v.get("pessoaQueRegrupa.parentesco")},
		{Label: "Email", Value: v.get("pessoaQueRegrupa.email")},
		{Label: "Telefone", Value: v.get("pessoaQueRegrupa.telefone")},
	}}

	reagrupada := Section{Heading: "Pessoa reagrupada", Rows: []Row{
		{Label: "Nome completo", Value: Upper(v.get("pessoaReagrupada.nomeCompleto"))},
		{Label: "Data de nascimento", Value: v.get("pessoaReagrupada.dataNascimento")},
		{Label: "Nacionalidade", Value: Upper(v.get("pessoaReagrupada.nacionalidade"))},
		{Label: "Tipo de documento", Value: v.get("pessoaReagrupada.tipoDocumento")},
		{Label: "N.º do documento", Value: v.documentNumber("pessoaReagrupada")},
		{Label: "Validade do documento", Value: v.get("pessoaReagrupada.validadeDocumento")},
		{Label: "Parentesco", Value: v.get("pessoaReagrupada.parentesco")},
	}}
	if v.declared("pessoaReagrupada.paisResidencia") {
		reagrupada.Rows = append(reagrupada.Rows, Row{Label: "País de residência", Value: Upper(v.get("pessoaReagrupada.paisResidencia"))})
	}
	if v.declared("pessoaReagrupada.isMenor") {
		menor := v.flag("pessoaReagrupada.isMenor")
		escolaridade := v.get("pessoaReagrupada.escolaridade")
		if menor && escolaridade == "" {
			escolaridade = escolaridadeSecundario
		}
		reagrupada.Rows = append(reagrupada.Rows,
			Row{Label: "Menor de idade", Value: simNao(v, "pessoaReagrupada.isMenor")},
			Row{Label: "Escolaridade", Value: escolaridade, Highlight: menor && escolaridade == escolaridadeSecundario},
		)
	}

	pedido := Section{Heading: "Pedido", Rows: []Row{
		{Label: "Tipo de pedido", Value: v.schema.Titulo},
	}}
	if v.declared("casamento.data") {
		pedido.Rows = append(pedido.Rows,
			Row{Label: "Data do casamento", Value: v.get("casamento.data")},
			Row{Label: "Local do casamento", Value: v.get("casamento.local")},
		)
	}
	pedido.Rows = append(pedido.Rows,
		Row{Label: "Local de atendimento preferido", Value: v.get("atendimento.local")},
		Row{Label: "Documentos entregues", Value: v.checkedDocuments()},
	)

	return Document{
		Title:    documentTitle,
		Subtitle: v.subtitle(),
		Sections: []Section{quemReagrupa, reagrupada, pedido},
		Notes:    v.p.OutrosDetalhes,
	}
}

// simNao renders a checkbox field; an unset field stays blank.
func simNao(v values, path string) string {
	if _, ok := v.p.Get(path); !ok {
		return ""
	}
	if v.flag(path) {
		return "SIM"
	}
	return "NÃO"
}

// defaultLabel is the human label of the type prefix of the process id.
func defaultLabel(v values) string {
	if v.p.ProcessID == "" {
		return v.schema.Titulo
	}
	return HumanLabel(processid.ParseType(v.p.ProcessID))
}

func defaultSubject(v values) string {
	return subjectPrefix + " - " + defaultLabel(v)
}

// defaultDocument is the residence skeleton with every cell blank.
func defaultDocument(v values) Document {
	doc := residenciaDocument(v).Blank()
	doc.Subtitle = defaultLabel(v)
	if v.p.ProcessID != "" {
		doc.Subtitle += " - processo " + v.p.ProcessID
	}
	return doc
}
