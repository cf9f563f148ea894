package core

// prompts.go holds the Portuguese prompt texts and the operator-facing
// notification messages.  Keeping them together makes them easy to tweak
// without touching the workflow code.

const (
	// DefaultPromptName is the template configured out of the box.
	DefaultPromptName = "Padrão TI Sênior"

	// DefaultPromptContent rewrites raw field notes into client-facing prose.
	// The placeholder is substituted with the consolidated fragments.
	DefaultPromptContent = `Você é um Especialista de Suporte de TI Sênior. Sua tarefa é reescrever o texto a seguir, que é uma transcrição bruta ou uma série de anotações de um técnico, em um formato profissional, claro, organizado e ideal para o entendimento de um cliente final. Consolide os pontos, mantenha os fatos técnicos, mas melhore a gramática e a estrutura. Texto Bruto: [TEXTO_BRUTO_AQUI]`

	// ReportInstruction opens the final report prompt.
	ReportInstruction = "Gere um laudo técnico conciso e profissional em Português (Brasil) para a seguinte visita técnica.\n" +
		"O laudo deve ser estruturado com as seções: Cliente, Local, Data, Técnico Responsável, Diagnóstico, Ações Executadas e Testes Realizados."

	// ReportClosing ends the final report prompt.
	ReportClosing = "Baseado nas anotações, sintetize as informações em suas respectivas seções no laudo final.\nSeja claro e objetivo."
)

// Notification messages.
const (
	MsgNoPrompt           = "Nenhum prompt de IA selecionado."
	MsgRewriteFailed      = "Falha ao refinar texto com IA."
	MsgNoMicrophone       = "Nenhum microfone encontrado."
	MsgMicrophoneDenied   = "Não foi possível acessar o microfone."
	MsgTranscribed        = "Áudio transcrito e adicionado!"
	MsgTranscribeFailed   = "Falha ao transcrever o áudio."
	MsgSavedDraft         = "Anotação salva como rascunho."
	MsgSavedFinal         = "Anotação salva como final."
	MsgSaveFailed         = "Falha ao salvar a anotação."
	MsgReportGenerated    = "Laudo gerado e enviado com sucesso!"
	MsgReportFailed       = "Falha ao gerar o laudo. Verifique sua chave de API e tente novamente."
	MsgTechnicianUnknown  = "Não informado"
	MsgClientRequired     = "Por favor, selecione um cliente."
	MsgFantasyNameMissing = "O campo nome_fantasia é obrigatório."
)
