package locale

var labels = map[string]map[string]string{
	French: {
		"nav.home":                "Accueil",
		"nav.programs":            "Formations",
		"nav.contact":             "Contact",
		"nav.login":               "Connexion",
		"nav.logout":              "Déconnexion",
		"nav.account":             "Mon compte",
		"nav.dashboard":           "Tableau de bord",
		"home.title":              "Bienvenue",
		"home.lead":               "Formations paramédicales, planning et suivi des étudiants.",
		"programs.title":          "Nos formations",
		"programs.lead":           "Soins infirmiers, sage-femme, kinésithérapie et techniques de laboratoire.",
		"contact.title":           "Nous contacter",
		"contact.lead":            "Le secrétariat vous répond du dimanche au jeudi, de 8h à 16h.",
		"login.title":             "Connexion",
		"login.email":             "Adresse e-mail",
		"login.password":          "Mot de passe",
		"login.submit":            "Se connecter",
		"login.error.network":     "Impossible de joindre le serveur, veuillez réessayer.",
		"login.error.server":      "Le serveur est indisponible, veuillez réessayer plus tard.",
		"login.error.credentials": "Identifiants invalides.",
		"pending.title":           "Vérification de la session…",
		"admin.title":             "Administration",
		"admin.students":          "Étudiants",
		"admin.admins":            "Administrateurs",
		"admin.filieres":          "Filières",
		"admin.specialities":      "Spécialités",
		"student.title":           "Espace étudiant",
		"student.group":           "Groupe",
		"student.semester":        "Semestre",
		"student.planning":        "Mon planning",
		"planning.title":          "Planning",
		"planning.empty":          "Aucun planning publié.",
		"account.title":           "Mon compte",
		"account.role":            "Rôle",
		"data.unavailable":        "Données momentanément indisponibles.",
	},
	English: {
		"nav.home":                "Home",
		"nav.programs":            "Programs",
		"nav.contact":             "Contact",
		"nav.login":               "Sign in",
		"nav.logout":              "Sign out",
		"nav.account":             "My account",
		"nav.dashboard":           "Dashboard",
		"home.title":              "Welcome",
		"home.lead":               "Paramedical training, timetables and student follow-up.",
		"programs.title":          "Our programs",
		"programs.lead":           "Nursing, midwifery, physiotherapy and laboratory techniques.",
		"contact.title":           "Contact us",
		"contact.lead":            "The office answers Sunday to Thursday, 8am to 4pm.",
		"login.title":             "Sign in",
		"login.email":             "Email address",
		"login.password":          "Password",
		"login.submit":            "Sign in",
		"login.error.network":     "Unable to reach the server, please try again.",
		"login.error.server":      "The server is unavailable, please try again later.",
		"login.error.credentials": "Invalid credentials.",
		"pending.title":           "Checking your session…",
		"admin.title":             "Administration",
		"admin.students":          "Students",
		"admin.admins":            "Administrators",
		"admin.filieres":          "Tracks",
		"admin.specialities":      "Specialities",
		"student.title":           "Student area",
		"student.group":           "Group",
		"student.semester":        "Semester",
		"student.planning":        "My timetable",
		"planning.title":          "Timetable",
		"planning.empty":          "No timetable published.",
		"account.title":           "My account",
		"account.role":            "Role",
		"data.unavailable":        "Data temporarily unavailable.",
	},
	Arabic: {
		"nav.home":                "الرئيسية",
		"nav.programs":            "التكوينات",
		"nav.contact":             "اتصل بنا",
		"nav.login":               "تسجيل الدخول",
		"nav.logout":              "تسجيل الخروج",
		"nav.account":             "حسابي",
		"nav.dashboard":           "لوحة التحكم",
		"home.title":              "مرحبا",
		"programs.title":          "تكويناتنا",
		"contact.title":           "اتصل بنا",
		"login.title":             "تسجيل الدخول",
		"login.email":             "البريد الإلكتروني",
		"login.password":          "كلمة المرور",
		"login.submit":            "دخول",
		"login.error.credentials": "بيانات الدخول غير صحيحة.",
		"pending.title":           "جارٍ التحقق من الجلسة…",
		"admin.title":             "الإدارة",
		"student.title":           "فضاء الطالب",
		"student.planning":        "جدولي الزمني",
		"account.title":           "حسابي",
	},
}
