package i18n

const (
	HeaderTitle    Key = "headerTitle"
	HeaderSubtitle Key = "headerSubtitle"
	BotName        Key = "botName"

	LanguageSelectorPrompt Key = "languageSelectorPrompt"

	LeadFormTitle        Key = "leadFormTitle"
	LeadFormSubtitle     Key = "leadFormSubtitle"
	NamePlaceholder      Key = "namePlaceholder"
	ContactPrompt        Key = "contactPrompt"
	EmailPlaceholder     Key = "emailPlaceholder"
	WhatsappPlaceholder  Key = "whatsappPlaceholder"
	PhonePlaceholder     Key = "phonePlaceholder"
	InstagramPlaceholder Key = "instagramPlaceholder"
	FacebookPlaceholder  Key = "facebookPlaceholder"
	LinkedinPlaceholder  Key = "linkedinPlaceholder"
	TelegramPlaceholder  Key = "telegramPlaceholder"
	StartChatButton      Key = "startChatButton"
	ConnectingButton     Key = "connectingButton"
	ChangeButtonText     Key = "changeButtonText"

	ErrorNameMissing          Key = "errorNameMissing"
	ErrorContactMethodMissing Key = "errorContactMethodMissing"
	ErrorContactInfoMissing   Key = "errorContactInfoMissing"
	ErrorInvalidEmail         Key = "errorInvalidEmail"

	ChatInputPlaceholder Key = "chatInputPlaceholder"
	ChatEndedPlaceholder Key = "chatEndedPlaceholder"

	InitialBotMessageSeed Key = "initialBotMessageSeed"
	ChatStartError        Key = "chatStartError"
	AssistantError        Key = "assistantError"
	ConnectionError       Key = "connectionError"

	HandoffEmailButton  Key = "handoffEmailButton"
	RequestEmailPrompt  Key = "requestEmailPrompt"
	TriggerFinalMessage Key = "triggerFinalMessage"
)

var table = map[Key]map[Language]string{
	HeaderTitle: {
		EN: "LOX",
		ES: "LOX",
		PT: "LOX",
	},
	HeaderSubtitle: {
		EN: "Your project strategist",
		ES: "Tu estratega de proyectos",
		PT: "Seu estrategista de projetos",
	},
	BotName: {
		EN: "lox",
		ES: "lox",
		PT: "lox",
	},

	LanguageSelectorPrompt: {
		EN: "Choose your language",
		ES: "Elige tu idioma",
		PT: "Escolha seu idioma",
	},

	LeadFormTitle: {
		EN: "Chat with Core",
		ES: "Chatea con Core",
		PT: "Converse com o Core",
	},
	LeadFormSubtitle: {
		EN: "I'm the DevCore Group AI assistant. To get started, please tell me your name and how to best reach you.",
		ES: "Soy el asistente de IA de DevCore Group. Para comenzar, dime tu nombre y la mejor forma de contactarte.",
		PT: "Eu sou o assistente de IA do DevCore Group. Para começar, diga seu nome e a melhor forma de entrar em contato.",
	},
	NamePlaceholder: {
		EN: "Your Name",
		ES: "Tu Nombre",
		PT: "Seu Nome",
	},
	ContactPrompt: {
		EN: "How should we contact you?",
		ES: "¿Cómo te contactamos?",
		PT: "Como devemos contatá-lo?",
	},
	EmailPlaceholder: {
		EN: "Your Email Address",
		ES: "Tu Dirección de Correo Electrónico",
		PT: "Seu Endereço de Email",
	},
	WhatsappPlaceholder: {
		EN: "Your WhatsApp Number",
		ES: "Tu Número de WhatsApp",
		PT: "Seu Número de WhatsApp",
	},
	PhonePlaceholder: {
		EN: "Your Phone Number",
		ES: "Tu Número de Teléfono",
		PT: "Seu Número de Telefone",
	},
	InstagramPlaceholder: {
		EN: "Your Instagram @username",
		ES: "Tu @usuario de Instagram",
		PT: "Seu @usuário do Instagram",
	},
	FacebookPlaceholder: {
		EN: "Your Facebook Profile URL",
		ES: "La URL de tu Perfil de Facebook",
		PT: "URL do seu Perfil no Facebook",
	},
	LinkedinPlaceholder: {
		EN: "Your LinkedIn Profile URL",
		ES: "La URL de tu Perfil de LinkedIn",
		PT: "URL do seu Perfil no LinkedIn",
	},
	TelegramPlaceholder: {
		EN: "Your Telegram @username",
		ES: "Tu @usuario de Telegram",
		PT: "Seu @usuário do Telegram",
	},
	StartChatButton: {
		EN: "Start Chat",
		ES: "Iniciar Chat",
		PT: "Iniciar Bate-papo",
	},
	ConnectingButton: {
		EN: "Connecting...",
		ES: "Conectando...",
		PT: "Conectando...",
	},
	ChangeButtonText: {
		EN: "Change",
		ES: "Cambiar",
		PT: "Alterar",
	},

	ErrorNameMissing: {
		EN: "Please enter your name.",
		ES: "Por favor, ingresa tu nombre.",
		PT: "Por favor, insira seu nome.",
	},
	ErrorContactMethodMissing: {
		EN: "Please select a contact method.",
		ES: "Por favor, selecciona un método de contacto.",
		PT: "Por favor, selecione um método de contato.",
	},
	ErrorContactInfoMissing: {
		EN: "Please provide your contact information.",
		ES: "Por favor, proporciona tu información de contacto.",
		PT: "Por favor, forneça suas informações de contato.",
	},
	ErrorInvalidEmail: {
		EN: "Please enter a valid email address.",
		ES: "Por favor, ingresa un correo electrónico válido.",
		PT: "Por favor, insira um endereço de e-mail válido.",
	},

	ChatInputPlaceholder: {
		EN: "Ask about our services...",
		ES: "Pregunta sobre nuestros servicios...",
		PT: "Pergunte sobre nossos serviços...",
	},
	ChatEndedPlaceholder: {
		EN: "Chat ended. Thank you!",
		ES: "Chat finalizado. ¡Gracias!",
		PT: "Bate-papo encerrado. Obrigado!",
	},

	InitialBotMessageSeed: {
		EN: "My name is {name}. Greet me and start our consultation, following your system instructions.",
		ES: "Mi nombre es {name}. Salúdame y comienza nuestra consultoría, siguiendo tus instrucciones de sistema.",
		PT: "Meu nome é {name}. Cumprimente-me e inicie nossa consultoria, seguindo suas instruções de sistema.",
	},
	ChatStartError: {
		EN: "Sorry, we couldn't start the chat session. Please try again.",
		ES: "Lo sentimos, no pudimos iniciar la sesión de chat. Por favor, inténtalo de nuevo.",
		PT: "Desculpe, não conseguimos iniciar a sessão de chat. Por favor, tente novamente.",
	},
	AssistantError: {
		EN: "I'm sorry, I encountered an error. Please try again.",
		ES: "Lo siento, he encontrado un error. Por favor, inténtalo de nuevo.",
		PT: "Desculpe, encontrei um erro. Por favor, tente novamente.",
	},
	ConnectionError: {
		EN: "I'm sorry, but I'm having trouble connecting right now. Please try again in a moment.",
		ES: "Lo siento, pero estoy teniendo problemas de conexión en este momento. Por favor, inténtalo de nuevo en un momento.",
		PT: "Desculpe, mas estou com problemas de conexão agora. Por favor, tente novamente em um momento.",
	},

	HandoffEmailButton: {
		EN: "I'd prefer to receive info by email",
		ES: "Prefiero recibir info por correo",
		PT: "Prefiro receber informações por e-mail",
	},
	RequestEmailPrompt: {
		EN: "Understood, {name}. To send you the detailed proposal, I need your email address. Could you please provide it?",
		ES: "Entendido, {name}. Para poder enviarte la propuesta detallada, necesito tu dirección de correo electrónico. ¿Podrías proporcionármela?",
		PT: "Entendido, {name}. Para enviar a proposta detalhada, preciso do seu endereço de e-mail. Você poderia fornecê-lo?",
	},
	TriggerFinalMessage: {
		EN: "INTERNAL: The user {name} has provided their email: {email}. Provide the final closing message from your instructions.",
		ES: "INTERNO: El usuario {name} ha proporcionado su correo: {email}. Proporciona el mensaje de cierre final de tus instrucciones.",
		PT: "INTERNO: O usuário {name} forneceu seu e-mail: {email}. Forneça a mensagem de encerramento final de suas instruções.",
	},
}
